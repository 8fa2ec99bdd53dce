// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package allinpay is a client for the Allinpay payment gateway.

# Overview

The gateway accepts AIPG documents: GBK-encoded XML posted over HTTPS as
text/xml. Every request carries a detached signature over its own bytes in
INFO/SIGNED_MSG, and every reply is signed the same way by the gateway. A
reply whose signature does not verify is never handed to the caller.

# Package Structure

	github.com/yeeli/allinpay/pkg/document    - AIPG element tree
	github.com/yeeli/allinpay/pkg/codec       - Canonical GBK XML encoding and signing input
	github.com/yeeli/allinpay/pkg/security    - Merchant signing and gateway verification keys
	github.com/yeeli/allinpay/pkg/request     - Request assembly and signing
	github.com/yeeli/allinpay/pkg/response    - Reply verification and result access
	github.com/yeeli/allinpay/pkg/transport   - HTTPS transport with TLS 1.2/1.3
	github.com/yeeli/allinpay/pkg/reliability - Exchange tracking and duplicate detection
	github.com/yeeli/allinpay/pkg/gateway     - Client, environments and exchange journal
	github.com/yeeli/allinpay/pkg/account     - Account operations (charge)
	github.com/yeeli/allinpay/pkg/gatewaytest - In-process gateway for tests
	github.com/yeeli/allinpay/pkg/gwerr       - Error kinds

# Quick Start

To charge a bank account into the merchant account:

	client, err := gateway.NewClient(gateway.Config{
	    Environment: gateway.Production,
	    Credential: security.Credential{
	        PrivateKeyPath:     "/etc/allinpay/merchant.pfx",
	        PrivateKeyPassword: password,
	        PublicKeyPath:      "/etc/allinpay/allinpay.cer",
	    },
	})
	if err != nil {
	    return err
	}

	result, err := account.NewService(client).Charge(ctx, "6225882516290000", "100.00")
	if err != nil {
	    return err
	}
	if !result.Succeeded() {
	    log.Printf("gateway returned %s: %s", result.RetCode(), result.ErrMsg())
	}

# Errors

Failures are classified with the sentinels in package gwerr:

  - ErrConfiguration: key material missing or unreadable
  - ErrEncoding: a value cannot be represented in GBK, or a reply is malformed
  - ErrTransport: the POST failed or returned a non-200 status
  - ErrSignatureVerification: the reply signature is missing or does not match

A verified reply with a non-success RET_CODE is not an error; inspect
Result.RetCode.

# Environments

  - production: https://tlt.allinpay.com/aipg/ProcessServlet
  - development, test: https://113.108.182.3/aipg/ProcessServlet (TLS verification disabled)

# License

BSD-2-Clause License
*/
package allinpay
