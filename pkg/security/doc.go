// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package security provides the detached signatures used by the gateway protocol.

A request is signed over its exact wire bytes with the merchant private key,
and every response is verified over its wire bytes (signature field removed)
with the gateway public key. This package does not know about documents; it
signs and verifies byte strings.

# Credential

A [Credential] names the two key files and the private key password. It is a
plain value handed to [NewKeyProvider] at construction time; both files must
exist or construction fails with an error of kind gwerr.ErrConfiguration:

	provider, err := security.NewKeyProvider(security.Credential{
	    PrivateKeyPath:     "/etc/allinpay/merchant.pfx",
	    PrivateKeyPassword: os.Getenv("ALLINPAY_KEY_PASSWORD"),
	    PublicKeyPath:      "/etc/allinpay/allinpay-pds.cer",
	})

# Algorithms

RSA keys sign with PKCS#1 v1.5; ECDSA keys produce ASN.1 signatures. The
digest is SHA-1 by default, as the gateway expects, and can be changed with
[WithHash].

# Wire form

Signatures travel as lowercase hex, see [EncodeSignature] and
[DecodeSignature].
*/
package security
