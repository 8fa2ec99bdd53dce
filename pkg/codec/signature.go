package codec

import (
	"regexp"

	"github.com/yeeli/allinpay/pkg/document"
)

// signatureElement matches the signature element including its tags. The
// signature is hex, so its content never contains '<'.
var signatureElement = regexp.MustCompile(`<` + document.TagSignature + `>[^<]*</` + document.TagSignature + `>`)

// StripSignature returns raw with every signature element removed. The
// bytes are transcoded to text to locate the element and the remainder is
// transcoded back, so the result is in the wire charset.
func StripSignature(raw []byte) ([]byte, error) {
	text, err := FromWire(raw)
	if err != nil {
		return nil, err
	}
	return ToWire(signatureElement.ReplaceAll(text, nil))
}

// CountSignatures returns how many signature elements StripSignature would
// remove from raw, including any hidden in comments or CDATA.
func CountSignatures(raw []byte) (int, error) {
	text, err := FromWire(raw)
	if err != nil {
		return 0, err
	}
	return len(signatureElement.FindAllIndex(text, -1)), nil
}

// SigningInput returns the bytes a signature over doc covers: doc encoded
// with an empty INFO/SIGNED_MSG in place, with that element stripped. This
// is exactly what StripSignature yields for the signed encoding, at any
// indentation. doc is not modified.
func (c *Codec) SigningInput(doc *document.Node) ([]byte, error) {
	if doc == nil {
		return c.Encode(nil)
	}
	placeholder := doc.Clone()
	placeholder.Section(document.TagInfo).Set(document.TagSignature, "")
	raw, err := c.Encode(placeholder)
	if err != nil {
		return nil, err
	}
	return StripSignature(raw)
}
