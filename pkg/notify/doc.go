// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package notify receives documents the gateway pushes to the merchant.

A notice is an AIPG document signed by the gateway with the same detached
signature scheme as replies. The [Handler] plugs into a transport.HTTPSServer
and processes each inbound body:

 1. The document is decoded and its signature verified with the gateway key
 2. Documents already received within the duplicate window are acknowledged
    without being delivered again
 3. The verified notice is delivered to the [Receiver]
 4. The exchange is recorded in the journal, when one is configured
 5. A signed acknowledgement is returned

A malformed body is answered with 400 and a bad signature with 403; neither
is delivered.

# Usage

	handler, err := notify.NewHandler(notify.Config{
	    Verifier: client.Verifier(),
	    Signer:   provider,
	    Receiver: notify.ReceiverFunc(func(ctx context.Context, n *notify.Notice) error {
	        return settle(ctx, n.Serial, n.Result)
	    }),
	    Tracker: reliability.NewExchangeTracker(24 * time.Hour),
	})
	server := transport.NewHTTPSServer(":8443", "/allinpay/notify", tlsConfig, handler)
	log.Fatal(server.Start())
*/
package notify
