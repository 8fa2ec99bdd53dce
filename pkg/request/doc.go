// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package request assembles and signs gateway request documents.

A business operation describes itself as a [Payload]: its transaction code,
the tag of its business section, its business code and fields. The
[Assembler] wraps the payload in the protocol header and returns an
[Unsigned] request:

	a := request.NewAssembler(request.WithMerchant("20060400000044502", "111111"))
	unsigned, err := a.Assemble(request.Payload{
	    TrxCode:      "300006",
	    Tag:          "CHARGEREQ",
	    BusinessCode: "100005",
	    Fields: []document.Field{
	        {Name: "BANKACCT", Value: "6222000000000"},
	        {Name: "AMOUNT", Value: "100.00"},
	    },
	})

# Signing order

The signature covers the document encoded without a signature field, and
the transmitted document carries the signature as the last INFO field. The
types make the order explicit: only an [Unsigned] can be signed, signing
yields a [Signed], and only a [Signed] produces transport bytes.

	signed, err := unsigned.Sign(ctx, c, provider) // encode, sign, attach
	body, err := signed.Encode()                  // encode again, signature included

Both requests are immutable; accessors return copies.
*/
package request
