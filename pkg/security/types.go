package security

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yeeli/allinpay/internal/keystore"
	"github.com/yeeli/allinpay/pkg/gwerr"
)

// Credential locates the key material of a merchant. It is read-only once
// handed to a provider.
type Credential struct {
	PrivateKeyPath     string
	PrivateKeyPassword string
	PublicKeyPath      string
}

// Validate checks that both key files exist.
func (c Credential) Validate() error {
	if c.PrivateKeyPath == "" {
		return gwerr.Configuration("validate credential", fmt.Errorf("private key path is required"))
	}
	if c.PublicKeyPath == "" {
		return gwerr.Configuration("validate credential", fmt.Errorf("public key path is required"))
	}
	if err := keystore.Exists(c.PrivateKeyPath); err != nil {
		return gwerr.Configuration("validate credential", fmt.Errorf("private key: %w", err))
	}
	if err := keystore.Exists(c.PublicKeyPath); err != nil {
		return gwerr.Configuration("validate credential", fmt.Errorf("public key: %w", err))
	}
	return nil
}

// LogValue implements slog.LogValuer and never prints the password.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("private_key", c.PrivateKeyPath),
		slog.String("public_key", c.PublicKeyPath),
		slog.Bool("password_set", c.PrivateKeyPassword != ""),
	)
}

// Signer produces a detached signature over data.
type Signer interface {
	Sign(ctx context.Context, data []byte) ([]byte, error)
}

// Verifier checks a detached signature over data. A signature that does not
// match returns false with a nil error; errors are reserved for failures to
// perform the check.
type Verifier interface {
	Verify(ctx context.Context, data, signature []byte) (bool, error)
}

// Provider signs outgoing and verifies incoming documents.
type Provider interface {
	Signer
	Verifier
}

// EncodeSignature returns the wire form of a signature: lowercase hex.
func EncodeSignature(sig []byte) string {
	return hex.EncodeToString(sig)
}

// DecodeSignature parses the wire form of a signature. Surrounding
// whitespace is ignored and either hex case is accepted.
func DecodeSignature(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("signature is empty")
	}
	sig, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding signature hex: %w", err)
	}
	return sig, nil
}
