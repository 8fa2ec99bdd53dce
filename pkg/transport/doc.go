// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package transport moves gateway documents over HTTPS.

The gateway client depends only on the [Transport] interface: post a body
with a content type and get back the status code and raw body. Any status
is returned as a [Response]; deciding what a non-200 status means is the
caller's job. Failures to reach the gateway at all are returned as errors
of kind gwerr.ErrTransport.

# TLS Configuration

TLS 1.2 is the minimum version:

	config := transport.DefaultHTTPSConfig()
	// MinTLSVersion: TLS 1.2
	// MaxTLSVersion: TLS 1.3

The gateway's test environment presents a certificate for a bare IP
address, so verification can be switched off per environment:

	config.InsecureSkipVerify = true

# Client Usage

	client := transport.NewHTTPSClient(config)
	resp, err := client.Post(ctx, "https://tlt.allinpay.com/aipg/ProcessServlet",
	    transport.ContentTypeXML, body)

# Server Usage

[HTTPSServer] accepts gateway documents, for instance payment notifications,
and hands the raw body to a [Handler]:

	server := transport.NewHTTPSServer(":8443", "/notify", config, handler)
	go server.Start()

# Content Types

	ContentTypeXML       = "text/xml"
	ContentTypeXMLWire   = "text/xml; charset=GBK"
*/
package transport
