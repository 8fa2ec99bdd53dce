// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package gatewaytest provides an in-process fake payment gateway for tests.
//
// The fake verifies each request's signature with the merchant public key,
// echoes the request document back with INFO/RET_CODE and INFO/ERR_MSG
// added, and signs the echo with the gateway key, following the same
// excision rule as the real gateway. It can be told to answer with another
// HTTP status or to tamper with the signed reply.
package gatewaytest
