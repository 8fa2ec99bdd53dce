package security

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	_ "crypto/sha1" // register SHA-1, the gateway default
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"

	"github.com/yeeli/allinpay/internal/keystore"
	"github.com/yeeli/allinpay/pkg/gwerr"
)

// DefaultHash is the digest the gateway signs with.
const DefaultHash = crypto.SHA1

// KeyProvider implements Provider with an in-memory private key for signing
// and a public key for verification. It is safe for concurrent use.
type KeyProvider struct {
	signer    crypto.Signer
	verifyKey crypto.PublicKey
	hash      crypto.Hash

	signerInfo   keystore.KeyInfo
	verifierInfo keystore.KeyInfo
}

// ProviderOption configures a KeyProvider
type ProviderOption func(*KeyProvider)

// WithHash sets the digest algorithm used for signing and verification.
func WithHash(h crypto.Hash) ProviderOption {
	return func(p *KeyProvider) {
		p.hash = h
	}
}

// NewKeyProvider loads the credential's key files.
// Any problem with the files is a configuration error.
func NewKeyProvider(cred Credential, opts ...ProviderOption) (*KeyProvider, error) {
	if err := cred.Validate(); err != nil {
		return nil, err
	}

	priv, err := keystore.LoadPrivateKey(cred.PrivateKeyPath, cred.PrivateKeyPassword)
	if err != nil {
		return nil, gwerr.Configuration("load private key", err)
	}
	pub, err := keystore.LoadPublicKey(cred.PublicKeyPath)
	if err != nil {
		return nil, gwerr.Configuration("load public key", err)
	}

	p, err := NewProvider(priv.Signer, pub.Key, opts...)
	if err != nil {
		return nil, err
	}
	p.signerInfo = priv.Info
	p.verifierInfo = pub.Info
	return p, nil
}

// NewProvider builds a provider from keys already in memory. Either key may
// be nil, in which case the corresponding operation fails.
func NewProvider(signer crypto.Signer, verifyKey crypto.PublicKey, opts ...ProviderOption) (*KeyProvider, error) {
	p := &KeyProvider{
		signer:    signer,
		verifyKey: verifyKey,
		hash:      DefaultHash,
	}
	for _, opt := range opts {
		opt(p)
	}

	if !p.hash.Available() {
		return nil, gwerr.Configuration("create provider", fmt.Errorf("hash function %v is not available", p.hash))
	}
	if signer != nil {
		if err := supported(signer.Public()); err != nil {
			return nil, gwerr.Configuration("create provider", fmt.Errorf("signing key: %w", err))
		}
	}
	if verifyKey != nil {
		if err := supported(verifyKey); err != nil {
			return nil, gwerr.Configuration("create provider", fmt.Errorf("verification key: %w", err))
		}
	}
	return p, nil
}

// Hash returns the configured digest algorithm.
func (p *KeyProvider) Hash() crypto.Hash {
	return p.hash
}

// SignerInfo describes the signing key when it was loaded from disk.
func (p *KeyProvider) SignerInfo() keystore.KeyInfo {
	return p.signerInfo
}

// VerifierInfo describes the verification key when it was loaded from disk.
func (p *KeyProvider) VerifierInfo() keystore.KeyInfo {
	return p.verifierInfo
}

// Sign signs data with the private key.
func (p *KeyProvider) Sign(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.signer == nil {
		return nil, fmt.Errorf("private key is required for signing")
	}

	sig, err := p.signer.Sign(rand.Reader, p.digest(data), p.hash)
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	return sig, nil
}

// Verify checks signature over data with the public key.
func (p *KeyProvider) Verify(ctx context.Context, data, signature []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.verifyKey == nil {
		return false, fmt.Errorf("public key is required for verification")
	}

	digest := p.digest(data)
	switch key := p.verifyKey.(type) {
	case *rsa.PublicKey:
		return rsa.VerifyPKCS1v15(key, p.hash, digest, signature) == nil, nil
	case *ecdsa.PublicKey:
		return ecdsa.VerifyASN1(key, digest, signature), nil
	default:
		return false, fmt.Errorf("unsupported verification key %T", p.verifyKey)
	}
}

func (p *KeyProvider) digest(data []byte) []byte {
	h := p.hash.New()
	h.Write(data)
	return h.Sum(nil)
}

func supported(pub crypto.PublicKey) error {
	switch pub.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey:
		return nil
	default:
		return fmt.Errorf("%w: %T", keystore.ErrUnsupportedKey, pub)
	}
}
