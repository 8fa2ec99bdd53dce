// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package document models the logical gateway document.

A document is an ordered tree of [Node] values rooted at the fixed AIPG tag.
Every node is either a leaf carrying a text value or a section carrying child
nodes. Child order is insertion order and is the order in which the codec
writes elements, so two documents built by the same sequence of calls always
serialize to the same bytes.

	root := document.New(document.TagRoot)
	info := root.Section(document.TagInfo)
	info.Set(document.TagTrxCode, "300006")
	info.Set(document.TagLevel, "9")

	req := root.Section("CHARGEREQ")
	req.Set("BUSINESS_CODE", "100005")

Tag names are used verbatim; no case or separator transformation happens
anywhere in this module.
*/
package document
