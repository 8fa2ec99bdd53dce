// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package response verifies gateway-signed documents and exposes their content.

The gateway signs the exact bytes it sends, minus the INFO/SIGNED_MSG
element. Verification therefore works on the raw bytes, never on a
re-serialization of the parsed document:

 1. read INFO/SIGNED_MSG from the parsed document and hex-decode it
 2. transcode the raw GBK bytes to text and cut out every
    <SIGNED_MSG>...</SIGNED_MSG> element
 3. transcode the remainder back to GBK and verify the signature over it

A [Result] is only ever built from a document that passed verification.

	v := response.NewVerifier(provider)
	verification, err := v.Check(ctx, raw)
	if err != nil {
	    return err // malformed bytes or failure to verify
	}
	if !verification.Valid {
	    return errors.New("untrusted response")
	}
	code := verification.Result.RetCode()
*/
package response
