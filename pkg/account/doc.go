// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package account implements the gateway's account operations.
//
// Charge tops up the merchant account from a bank account (transaction code
// 300006). Summary and remark are written only when given:
//
//	svc := account.NewService(client)
//	result, err := svc.Charge(ctx, "6222000000000", "100.00",
//	    account.WithRemark("March top-up"))
package account
