// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package gwerr defines the error kinds surfaced by the gateway client.

Every failure of a gateway exchange belongs to exactly one kind:

  - [ErrConfiguration]: credential files missing or unusable at setup time
  - [ErrEncoding]: a value cannot be represented in the wire character set,
    or response bytes are malformed
  - [ErrTransport]: a non-200 status or a transport-level failure
  - [ErrSignatureVerification]: the response signature does not match the
    response content

All kinds are terminal for the exchange; nothing in this module retries.
Use errors.Is to classify:

	result, err := client.Do(ctx, charge)
	switch {
	case errors.Is(err, gwerr.ErrTransport):
	    // maybe retry with the same request serial number
	case errors.Is(err, gwerr.ErrSignatureVerification):
	    // never trust the response
	}

Non-200 responses additionally carry a [StatusError]:

	var se *gwerr.StatusError
	if errors.As(err, &se) {
	    log.Printf("gateway answered %d", se.StatusCode)
	}
*/
package gwerr
