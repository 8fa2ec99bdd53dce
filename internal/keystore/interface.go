// Package keystore loads signing and verification key material from disk.
//
// Supported formats:
//
//   - Private keys: PKCS#12 archives (.pfx, .p12) protected by a password, or
//     unencrypted PEM (PKCS#1, PKCS#8, SEC 1)
//   - Public keys: X.509 certificates in DER (.cer) or PEM form, or a PEM
//     PUBLIC KEY block
//
// The gateway issues merchants a PKCS#12 archive for signing and a DER
// certificate for verifying gateway responses.
package keystore

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"time"
)

// Common errors
var (
	ErrKeyNotFound      = errors.New("key file not found")
	ErrUnsupportedKey   = errors.New("unsupported key type")
	ErrWrongPassword    = errors.New("incorrect key password")
	ErrNoKeyMaterial    = errors.New("no key material found")
	ErrPasswordRequired = errors.New("password required for PKCS#12 archive")
)

// KeyInfo describes loaded key material
type KeyInfo struct {
	// Path is the file the key was loaded from
	Path string

	// Algorithm is the key algorithm ("RSA" or "EC")
	Algorithm string

	// KeySize is the key size in bits
	KeySize int

	// CertificateSubject is the subject DN when the key came with a certificate
	CertificateSubject string

	// NotAfter is the certificate expiry, zero when there is no certificate
	NotAfter time.Time
}

func describe(path string, pub crypto.PublicKey, cert *x509.Certificate) KeyInfo {
	info := KeyInfo{
		Path:      path,
		Algorithm: keyAlgorithmName(pub),
		KeySize:   keySize(pub),
	}
	if cert != nil {
		info.CertificateSubject = cert.Subject.String()
		info.NotAfter = cert.NotAfter
	}
	return info
}

func keyAlgorithmName(pub crypto.PublicKey) string {
	switch pub.(type) {
	case *ecdsa.PublicKey:
		return "EC"
	case *rsa.PublicKey:
		return "RSA"
	default:
		return "Unknown"
	}
}

func keySize(pub crypto.PublicKey) int {
	switch k := pub.(type) {
	case *ecdsa.PublicKey:
		return k.Curve.Params().BitSize
	case *rsa.PublicKey:
		return k.N.BitLen()
	default:
		return 0
	}
}
