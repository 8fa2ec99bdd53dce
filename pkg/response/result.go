package response

import "github.com/yeeli/allinpay/pkg/document"

// RetCodeSuccess is the INFO/RET_CODE of a request the gateway accepted.
const RetCodeSuccess = "0000"

// Result is the content of a verified response.
type Result struct {
	doc *document.Node
}

func newResult(doc *document.Node) *Result {
	return &Result{doc: doc.Clone()}
}

// NewResult wraps a document that has already been verified.
func NewResult(doc *document.Node) *Result {
	return newResult(doc)
}

// Document returns a copy of the whole response document.
func (r *Result) Document() *document.Node {
	return r.doc.Clone()
}

// Header returns a copy of the INFO section, or nil.
func (r *Result) Header() *document.Node {
	return r.doc.Child(document.TagInfo).Clone()
}

// Value returns the leaf at a slash separated path below the root.
func (r *Result) Value(path string) (string, bool) {
	return r.doc.Value(path)
}

// Serial returns INFO/REQ_SN.
func (r *Result) Serial() string {
	v, _ := r.doc.Value(document.TagInfo + "/" + document.TagReqSN)
	return v
}

// RetCode returns INFO/RET_CODE.
func (r *Result) RetCode() string {
	v, _ := r.doc.Value(document.TagInfo + "/" + document.TagRetCode)
	return v
}

// ErrMsg returns INFO/ERR_MSG.
func (r *Result) ErrMsg() string {
	v, _ := r.doc.Value(document.TagInfo + "/" + document.TagErrMsg)
	return v
}

// Succeeded reports whether the gateway returned RetCodeSuccess.
func (r *Result) Succeeded() bool {
	return r.RetCode() == RetCodeSuccess
}

// Business returns a copy of the named business section, or nil.
func (r *Result) Business(tag string) *document.Node {
	return r.doc.Child(tag).Clone()
}

// Sections returns copies of every top level section except INFO.
func (r *Result) Sections() []*document.Node {
	var out []*document.Node
	for _, c := range r.doc.Children {
		if c.Tag != document.TagInfo {
			out = append(out, c.Clone())
		}
	}
	return out
}

// Map returns the whole document as nested maps.
func (r *Result) Map() map[string]any {
	return r.doc.Map()
}
