package request

import (
	"context"
	"fmt"

	"github.com/yeeli/allinpay/pkg/codec"
	"github.com/yeeli/allinpay/pkg/document"
	"github.com/yeeli/allinpay/pkg/security"
)

// Unsigned is an assembled request whose header has no signature field.
type Unsigned struct {
	serial  string
	trxCode string
	tag     string
	doc     *document.Node
}

// Serial returns INFO/REQ_SN.
func (u *Unsigned) Serial() string { return u.serial }

// TrxCode returns INFO/TRX_CODE.
func (u *Unsigned) TrxCode() string { return u.trxCode }

// Tag returns the business section tag.
func (u *Unsigned) Tag() string { return u.tag }

// Document returns a copy of the request document.
func (u *Unsigned) Document() *document.Node { return u.doc.Clone() }

// SigningInput returns the bytes a signature covers: the canonical encoding
// of the document without a signature element.
func (u *Unsigned) SigningInput(c *codec.Codec) ([]byte, error) {
	return c.SigningInput(u.doc)
}

// Sign encodes the request, signs the encoding and returns the request with
// the hex signature attached as the last INFO field.
func (u *Unsigned) Sign(ctx context.Context, c *codec.Codec, signer security.Signer) (*Signed, error) {
	input, err := u.SigningInput(c)
	if err != nil {
		return nil, err
	}

	sig, err := signer.Sign(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("signing request %s: %w", u.serial, err)
	}

	doc := u.doc.Clone()
	signature := security.EncodeSignature(sig)
	doc.Section(document.TagInfo).Set(document.TagSignature, signature)

	return &Signed{
		serial:       u.serial,
		trxCode:      u.trxCode,
		tag:          u.tag,
		signature:    signature,
		signingInput: input,
		doc:          doc,
		codec:        c,
	}, nil
}

// Signed is a request carrying its signature.
type Signed struct {
	serial       string
	trxCode      string
	tag          string
	signature    string
	signingInput []byte
	doc          *document.Node
	codec        *codec.Codec
}

// Serial returns INFO/REQ_SN.
func (s *Signed) Serial() string { return s.serial }

// TrxCode returns INFO/TRX_CODE.
func (s *Signed) TrxCode() string { return s.trxCode }

// Tag returns the business section tag.
func (s *Signed) Tag() string { return s.tag }

// Signature returns the hex signature in INFO/SIGNED_MSG.
func (s *Signed) Signature() string { return s.signature }

// SigningInput returns a copy of the bytes the signature was computed over.
func (s *Signed) SigningInput() []byte {
	return append([]byte(nil), s.signingInput...)
}

// Document returns a copy of the signed document.
func (s *Signed) Document() *document.Node { return s.doc.Clone() }

// Encode returns the transport bytes. The document is encoded again, with
// the codec that produced the signing input, rather than patched.
func (s *Signed) Encode() ([]byte, error) {
	return s.codec.Encode(s.doc)
}

// SignDocument signs an arbitrary document the way requests are signed and
// returns its transport bytes. An existing signature is replaced.
func SignDocument(ctx context.Context, c *codec.Codec, signer security.Signer, doc *document.Node) ([]byte, error) {
	input, err := c.SigningInput(doc)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("signing document: %w", err)
	}

	signed := doc.Clone()
	signed.Section(document.TagInfo).Set(document.TagSignature, security.EncodeSignature(sig))
	return c.Encode(signed)
}
