package codec

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/yeeli/allinpay/pkg/document"
	"github.com/yeeli/allinpay/pkg/gwerr"
)

// Compact disables indentation: no whitespace is written between elements.
const Compact = -1

// Codec encodes and decodes documents. A Codec is immutable and safe for
// concurrent use.
type Codec struct {
	indent int
}

// Option configures a Codec
type Option func(*Codec)

// WithIndent sets the number of spaces per nesting level. Zero puts every
// element on its own line without leading spaces; Compact writes no
// whitespace at all.
func WithIndent(spaces int) Option {
	return func(c *Codec) {
		if spaces < 0 {
			spaces = Compact
		}
		c.indent = spaces
	}
}

// New creates a codec. The default indentation is Compact.
func New(opts ...Option) *Codec {
	c := &Codec{indent: Compact}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Indent returns the configured indentation.
func (c *Codec) Indent() int {
	return c.indent
}

// Encode returns the canonical GBK bytes of doc. doc is not modified.
func (c *Codec) Encode(doc *document.Node) ([]byte, error) {
	text, err := c.EncodeText(doc)
	if err != nil {
		return nil, err
	}
	return ToWire(text)
}

// EncodeText returns the canonical form of doc as UTF-8 text. The declared
// encoding is still the wire charset; the text is what Encode transcodes.
func (c *Codec) EncodeText(doc *document.Node) ([]byte, error) {
	if doc == nil {
		return nil, gwerr.Encoding("encode document", fmt.Errorf("document is nil"))
	}

	x := etree.NewDocument()
	x.WriteSettings.CanonicalEndTags = true
	// Carriage returns are written as &#xD; so parsing does not normalize them.
	x.WriteSettings.CanonicalText = true
	x.CreateProcInst("xml", `version="1.0" encoding="`+WireCharset+`"`)

	root := x.CreateElement(doc.Tag)
	if err := writeNode(root, doc); err != nil {
		return nil, gwerr.Encoding("encode document", err)
	}
	if c.indent != Compact {
		x.Indent(c.indent)
	}

	text, err := x.WriteToBytes()
	if err != nil {
		return nil, gwerr.Encoding("encode document", err)
	}
	return text, nil
}

func writeNode(el *etree.Element, n *document.Node) error {
	if !validTag(n.Tag) {
		return fmt.Errorf("invalid element name %q", n.Tag)
	}
	if n.IsLeaf() {
		if err := checkText(n.Tag, n.Text); err != nil {
			return err
		}
		if n.Text != "" {
			el.SetText(n.Text)
		}
		return nil
	}
	for _, child := range n.Children {
		if err := writeNode(el.CreateElement(child.Tag), child); err != nil {
			return err
		}
	}
	return nil
}

// checkText rejects values XML cannot carry. Left unchecked, the writer
// would substitute U+FFFD for them.
func checkText(tag, text string) error {
	for i, r := range text {
		if r == utf8.RuneError {
			if _, width := utf8.DecodeRuneInString(text[i:]); width == 1 {
				return fmt.Errorf("invalid UTF-8 at byte %d in field %s", i, tag)
			}
		}
		if !xmlChar(r) {
			return fmt.Errorf("invalid character %q in field %s", r, tag)
		}
	}
	return nil
}

// xmlChar reports whether r is in the XML 1.0 Char production.
func xmlChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// validTag accepts the subset of XML names the protocol uses: ASCII letters,
// digits, '_', '-' and '.', not starting with a digit, '-' or '.'.
func validTag(tag string) bool {
	if tag == "" {
		return false
	}
	for i, r := range tag {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r == '_':
		case (r >= '0' && r <= '9') || r == '-' || r == '.':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Decode parses GBK bytes into a document.
func (c *Codec) Decode(raw []byte) (*document.Node, error) {
	text, err := FromWire(raw)
	if err != nil {
		return nil, err
	}
	return c.DecodeText(text)
}

// DecodeText parses UTF-8 text into a document. A declared non-UTF-8
// encoding is ignored because the text has already been transcoded.
func (c *Codec) DecodeText(text []byte) (*document.Node, error) {
	x := etree.NewDocument()
	x.ReadSettings.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := x.ReadFromBytes(text); err != nil {
		return nil, gwerr.Encoding("decode document", err)
	}

	root := x.Root()
	if root == nil {
		return nil, gwerr.Encoding("decode document", fmt.Errorf("no root element found"))
	}
	return readElement(root), nil
}

func readElement(el *etree.Element) *document.Node {
	n := document.New(el.Tag)
	children := el.ChildElements()
	if len(children) == 0 {
		n.Text = el.Text()
		return n
	}
	for _, child := range children {
		n.Append(readElement(child))
	}
	return n
}
