// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package gateway runs signed exchanges with the payment gateway.

A [Client] holds everything an exchange needs, injected once at
construction: the signature provider (built from a merchant credential),
the codec, the request assembler, the transport and the gateway URL. No
process-wide state is involved, so clients for different merchants or
environments can coexist.

Every exchange follows the same strict sequence:

 1. assemble the request without a signature field
 2. encode it and sign the encoding
 3. attach the hex signature and encode again for transmission
 4. POST the bytes as text/xml
 5. a non-200 status fails with gwerr.ErrTransport, without retry
 6. decode the response and verify its signature over the raw bytes
 7. an invalid signature fails with gwerr.ErrSignatureVerification and
    the response is discarded
 8. return the verified [response.Result]

# Usage

	client, err := gateway.NewClient(gateway.Config{
	    Environment: gateway.Production,
	    Credential: security.Credential{
	        PrivateKeyPath:     "merchant.pfx",
	        PrivateKeyPassword: os.Getenv("MERCHANT_KEY_PASSWORD"),
	        PublicKeyPath:      "allinpay.cer",
	    },
	})
	if err != nil {
	    return err // gwerr.ErrConfiguration when a key file is missing
	}

	result, err := client.Do(ctx, business)

# Environments

The production environment posts to https://tlt.allinpay.com/aipg/ProcessServlet.
Development and test post to the gateway's test host, which is addressed by
IP and therefore has TLS certificate verification disabled. Config.URL
overrides the environment's URL.

# Side channels

An optional [reliability.ExchangeTracker] records the state of every
request serial number, and an optional [Journal] receives an
[ExchangeRecord] per exchange. Journal failures are logged and never fail
the exchange.
*/
package gateway
