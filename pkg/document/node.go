package document

import "strings"

// Protocol tag names
const (
	TagRoot      = "AIPG"
	TagInfo      = "INFO"
	TagSignature = "SIGNED_MSG"
	TagTrxCode   = "TRX_CODE"
	TagUserName  = "USER_NAME"
	TagUserPass  = "USER_PASS"
	TagReqSN     = "REQ_SN"
	TagReqTime   = "REQTIME"
	TagLevel     = "LEVEL"
	TagRetCode   = "RET_CODE"
	TagErrMsg    = "ERR_MSG"

	TagBusinessCode = "BUSINESS_CODE"
)

// Field is a named scalar value.
type Field struct {
	Name  string
	Value string
}

// Node is an element of the logical document.
// A node with children is a section; a node without children is a leaf and
// its Text is the element value.
type Node struct {
	Tag      string
	Text     string
	Children []*Node
}

// New returns an empty node.
func New(tag string) *Node {
	return &Node{Tag: tag}
}

// IsLeaf reports whether n carries a scalar value.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Child returns the first direct child with the given tag, or nil.
func (n *Node) Child(tag string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// Find resolves a slash separated path of tags below n, e.g. "INFO/REQ_SN".
func (n *Node) Find(path string) *Node {
	cur := n
	for _, tag := range strings.Split(path, "/") {
		cur = cur.Child(tag)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Value returns the text of the leaf at path.
func (n *Node) Value(path string) (string, bool) {
	c := n.Find(path)
	if c == nil || !c.IsLeaf() {
		return "", false
	}
	return c.Text, true
}

// Set assigns value to the leaf child tag. An existing child keeps its
// position; a new one is appended.
func (n *Node) Set(tag, value string) *Node {
	if c := n.Child(tag); c != nil {
		c.Text = value
		c.Children = nil
		return n
	}
	n.Children = append(n.Children, &Node{Tag: tag, Text: value})
	return n
}

// SetFields sets each field in order.
func (n *Node) SetFields(fields ...Field) *Node {
	for _, f := range fields {
		n.Set(f.Name, f.Value)
	}
	return n
}

// Section returns the child section tag, appending it when absent.
func (n *Node) Section(tag string) *Node {
	if c := n.Child(tag); c != nil {
		return c
	}
	c := New(tag)
	n.Children = append(n.Children, c)
	return c
}

// Append adds c as the last child.
func (n *Node) Append(c *Node) *Node {
	n.Children = append(n.Children, c)
	return n
}

// Remove deletes every direct child with the given tag and reports whether
// anything was removed.
func (n *Node) Remove(tag string) bool {
	kept := n.Children[:0]
	removed := false
	for _, c := range n.Children {
		if c.Tag == tag {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(n.Children); i++ {
		n.Children[i] = nil
	}
	n.Children = kept
	return removed
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Tag: n.Tag, Text: n.Text}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// Equal reports whether n and other have the same tags, values and order.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Tag != other.Tag || len(n.Children) != len(other.Children) {
		return false
	}
	if n.IsLeaf() {
		return n.Text == other.Text
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// Fields returns the leaf children of n in order.
func (n *Node) Fields() []Field {
	var fields []Field
	for _, c := range n.Children {
		if c.IsLeaf() {
			fields = append(fields, Field{Name: c.Tag, Value: c.Text})
		}
	}
	return fields
}

// Map converts the children of n to a plain map. Leaves become strings and
// sections become nested maps; a tag repeated under one parent becomes a
// slice in document order.
func (n *Node) Map() map[string]any {
	m := make(map[string]any, len(n.Children))
	for _, c := range n.Children {
		var v any = c.Text
		if !c.IsLeaf() {
			v = c.Map()
		}
		switch prev := m[c.Tag].(type) {
		case nil:
			m[c.Tag] = v
		case []any:
			m[c.Tag] = append(prev, v)
		default:
			m[c.Tag] = []any{prev, v}
		}
	}
	return m
}
