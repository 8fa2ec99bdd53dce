package response

import (
	"context"
	"fmt"

	"github.com/yeeli/allinpay/pkg/codec"
	"github.com/yeeli/allinpay/pkg/document"
	"github.com/yeeli/allinpay/pkg/security"
)

// Verification is the outcome of checking a signed document. Result is set
// only when Valid is true.
type Verification struct {
	Valid  bool
	Reason string
	Result *Result
}

// Verifier checks gateway signatures. It is safe for concurrent use.
type Verifier struct {
	verifier security.Verifier
	codec    *codec.Codec
}

// VerifierOption configures a Verifier
type VerifierOption func(*Verifier)

// WithCodec sets the codec used to decode documents in Check.
func WithCodec(c *codec.Codec) VerifierOption {
	return func(v *Verifier) {
		v.codec = c
	}
}

// NewVerifier creates a verifier backed by the given signature verifier.
func NewVerifier(verifier security.Verifier, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		verifier: verifier,
		codec:    codec.New(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify reports whether raw carries a valid signature. doc must be the
// parsed form of raw. Only INFO/SIGNED_MSG is trusted: a document with a
// signature element anywhere else is invalid. A missing or malformed
// signature field is reported as false, not as an error.
func (v *Verifier) Verify(ctx context.Context, raw []byte, doc *document.Node) (bool, error) {
	ok, _, err := v.verify(ctx, raw, doc)
	return ok, err
}

// Check decodes raw and verifies it. Decoding failures are returned as
// errors of kind gwerr.ErrEncoding.
func (v *Verifier) Check(ctx context.Context, raw []byte) (*Verification, error) {
	doc, err := v.codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	ok, reason, err := v.verify(ctx, raw, doc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Verification{Valid: false, Reason: reason}, nil
	}
	return &Verification{Valid: true, Result: newResult(doc)}, nil
}

func (v *Verifier) verify(ctx context.Context, raw []byte, doc *document.Node) (bool, string, error) {
	if doc == nil {
		return false, "", fmt.Errorf("parsed document is required")
	}

	encoded, ok := doc.Value(document.TagInfo + "/" + document.TagSignature)
	if !ok {
		return false, "signature field missing", nil
	}
	if reason, err := checkPlacement(raw, doc); err != nil || reason != "" {
		return false, reason, err
	}
	sig, err := security.DecodeSignature(encoded)
	if err != nil {
		return false, err.Error(), nil
	}

	signed, err := SignedContent(raw)
	if err != nil {
		return false, "", err
	}

	valid, err := v.verifier.Verify(ctx, signed, sig)
	if err != nil {
		return false, "", fmt.Errorf("verifying signature: %w", err)
	}
	if !valid {
		return false, "signature does not match content", nil
	}
	return true, "", nil
}

// checkPlacement returns a reason when raw carries a signature element other
// than INFO/SIGNED_MSG, including one hidden in a comment.
func checkPlacement(raw []byte, doc *document.Node) (string, error) {
	if n := countTag(doc, document.TagSignature); n != 1 {
		return fmt.Sprintf("expected one signature element, found %d", n), nil
	}
	n, err := codec.CountSignatures(raw)
	if err != nil {
		return "", err
	}
	if n != 1 {
		return fmt.Sprintf("expected one signature element in raw bytes, found %d", n), nil
	}
	return "", nil
}

func countTag(n *document.Node, tag string) int {
	count := 0
	if n.Tag == tag {
		count++
	}
	for _, c := range n.Children {
		count += countTag(c, tag)
	}
	return count
}

// SignedContent reconstructs the bytes a signed document's signature
// covers: raw with every signature element removed, in the wire charset.
func SignedContent(raw []byte) ([]byte, error) {
	return codec.StripSignature(raw)
}
