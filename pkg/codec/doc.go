// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package codec converts logical documents to and from their exact wire bytes.

The gateway speaks XML in the GBK character set. Documents are assembled as
Go strings (UTF-8), written to XML text with github.com/beevik/etree, and the
text is then transcoded to GBK. Decoding runs the same steps backwards.

# Canonical form

  - declaration <?xml version="1.0" encoding="GBK"?>
  - a single root element, no attributes
  - tag names written verbatim, nested sections become nested elements
  - every element has an explicit end tag, even when empty
  - child order is document order

Indentation is a codec setting ([Compact] by default) and never varies
between calls, so the same document always encodes to the same bytes. This
matters because the request signature covers the encoded bytes and the
document is encoded twice: once without and once with the signature field.

# Transcoding

Characters outside the GBK repertoire fail with an error of kind
gwerr.ErrEncoding instead of being substituted. Bytes that are not valid GBK
fail the same way on decode.

	c := codec.New()
	raw, err := c.Encode(doc)
	...
	doc, err = c.Decode(raw)
*/
package codec
