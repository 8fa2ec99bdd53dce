package keystore

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// PrivateKey is a loaded signing key
type PrivateKey struct {
	Signer crypto.Signer
	Cert   *x509.Certificate
	Info   KeyInfo
}

// PublicKey is a loaded verification key
type PublicKey struct {
	Key  crypto.PublicKey
	Cert *x509.Certificate
	Info KeyInfo
}

// Exists reports whether path names an existing regular file.
func Exists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrKeyNotFound, path)
		}
		return fmt.Errorf("checking key file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("key path is a directory: %s", path)
	}
	return nil
}

// LoadPrivateKey reads a signing key. PKCS#12 archives are detected by
// extension (.pfx, .p12) or by the absence of PEM armour, and are opened
// with password. The password is ignored for PEM files.
func LoadPrivateKey(path, password string) (*PrivateKey, error) {
	data, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}

	if isPKCS12(path, data) {
		return parsePKCS12(path, data, password)
	}

	signer, err := parsePrivateKeyPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parsing private key %s: %w", path, err)
	}
	return &PrivateKey{
		Signer: signer,
		Info:   describe(path, signer.Public(), nil),
	}, nil
}

// LoadPublicKey reads a verification key from a certificate (DER or PEM) or
// a PEM public key.
func LoadPublicKey(path string) (*PublicKey, error) {
	data, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil {
		// DER certificate, the format the gateway distributes
		cert, err := x509.ParseCertificate(data)
		if err != nil {
			return nil, fmt.Errorf("parsing certificate %s: %w", path, err)
		}
		return publicFromCert(path, cert)
	}

	switch block.Type {
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parsing certificate %s: %w", path, err)
		}
		return publicFromCert(path, cert)
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parsing public key %s: %w", path, err)
		}
		if err := checkSupported(key); err != nil {
			return nil, err
		}
		return &PublicKey{Key: key, Info: describe(path, key, nil)}, nil
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parsing public key %s: %w", path, err)
		}
		return &PublicKey{Key: key, Info: describe(path, key, nil)}, nil
	default:
		return nil, fmt.Errorf("%w: PEM block %q in %s", ErrUnsupportedKey, block.Type, path)
	}
}

func readKeyFile(path string) ([]byte, error) {
	if err := Exists(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoKeyMaterial, path)
	}
	return data, nil
}

func isPKCS12(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pfx", ".p12":
		return true
	case ".pem", ".key":
		return false
	}
	block, _ := pem.Decode(data)
	return block == nil
}

func parsePKCS12(path string, data []byte, password string) (*PrivateKey, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: %s", ErrPasswordRequired, path)
	}
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return nil, fmt.Errorf("%w: %s", ErrWrongPassword, path)
		}
		return nil, fmt.Errorf("decoding PKCS#12 archive %s: %w", path, err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: %T in %s", ErrUnsupportedKey, key, path)
	}
	if err := checkSupported(signer.Public()); err != nil {
		return nil, err
	}

	return &PrivateKey{
		Signer: signer,
		Cert:   cert,
		Info:   describe(path, signer.Public(), cert),
	}, nil
}

func parsePrivateKeyPEM(pemData []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, ErrNoKeyMaterial
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("%w: key is not a signer", ErrUnsupportedKey)
		}
		if err := checkSupported(signer.Public()); err != nil {
			return nil, err
		}
		return signer, nil
	default:
		return nil, fmt.Errorf("%w: PEM block %q", ErrUnsupportedKey, block.Type)
	}
}

func publicFromCert(path string, cert *x509.Certificate) (*PublicKey, error) {
	if err := checkSupported(cert.PublicKey); err != nil {
		return nil, err
	}
	return &PublicKey{
		Key:  cert.PublicKey,
		Cert: cert,
		Info: describe(path, cert.PublicKey, cert),
	}, nil
}

func checkSupported(pub crypto.PublicKey) error {
	switch pub.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey:
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedKey, pub)
	}
}
