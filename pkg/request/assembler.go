package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yeeli/allinpay/pkg/document"
)

// Protocol header constants
const (
	// DefaultLevel is the processing priority written to INFO/LEVEL.
	DefaultLevel = "9"

	// TimeLayout is the format of INFO/REQTIME.
	TimeLayout = "20060102150405"
)

// GatewayZone is the time zone request timestamps are expressed in.
var GatewayZone = time.FixedZone("CST", 8*60*60)

// Payload is the contribution of a business operation to a request.
type Payload struct {
	// TrxCode is the protocol transaction code (INFO/TRX_CODE)
	TrxCode string

	// Tag names the business section, e.g. "CHARGEREQ"
	Tag string

	// BusinessCode is written first in the business section
	BusinessCode string

	// Fields are the identifying and amount fields, written in order
	Fields []document.Field

	// Extras are optional fields appended after Fields. Entries with an
	// empty value are treated as not provided and are not written.
	Extras []document.Field

	// Serial overrides the generated request serial number (INFO/REQ_SN)
	Serial string
}

// Business is implemented by operations that build their own payload.
type Business interface {
	Payload() Payload
}

// Assembler builds request documents. It holds no per-request state and is
// safe for concurrent use.
type Assembler struct {
	level    string
	userName string
	userPass string
	now      func() time.Time
	serial   func() string
}

// Option configures an Assembler
type Option func(*Assembler)

// WithLevel overrides INFO/LEVEL.
func WithLevel(level string) Option {
	return func(a *Assembler) {
		a.level = level
	}
}

// WithMerchant adds the merchant login fields to every header.
func WithMerchant(userName, userPass string) Option {
	return func(a *Assembler) {
		a.userName = userName
		a.userPass = userPass
	}
}

// WithClock sets the time source for INFO/REQTIME.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// WithSerialGenerator sets the generator for INFO/REQ_SN.
func WithSerialGenerator(next func() string) Option {
	return func(a *Assembler) {
		a.serial = next
	}
}

// NewAssembler creates an assembler with the given options
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		level:  DefaultLevel,
		now:    time.Now,
		serial: NewSerial,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewSerial returns a fresh request serial number: 32 lowercase hex digits.
func NewSerial() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Assemble builds the unsigned request document for p.
// It performs no I/O.
func (a *Assembler) Assemble(p Payload) (*Unsigned, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	serial := p.Serial
	if serial == "" {
		serial = a.serial()
	}

	root := document.New(document.TagRoot)

	info := root.Section(document.TagInfo)
	info.Set(document.TagTrxCode, p.TrxCode)
	if a.userName != "" {
		info.Set(document.TagUserName, a.userName)
		info.Set(document.TagUserPass, a.userPass)
	}
	info.Set(document.TagReqSN, serial)
	info.Set(document.TagReqTime, a.now().In(GatewayZone).Format(TimeLayout))
	info.Set(document.TagLevel, a.level)

	body := root.Section(p.Tag)
	body.Set(document.TagBusinessCode, p.BusinessCode)
	body.SetFields(p.Fields...)
	for _, f := range p.Extras {
		if f.Value != "" {
			body.Set(f.Name, f.Value)
		}
	}

	return &Unsigned{
		serial:  serial,
		trxCode: p.TrxCode,
		tag:     p.Tag,
		doc:     root,
	}, nil
}

// AssembleBusiness is Assemble for a Business value.
func (a *Assembler) AssembleBusiness(b Business) (*Unsigned, error) {
	if b == nil {
		return nil, fmt.Errorf("business operation is required")
	}
	return a.Assemble(b.Payload())
}

func (p Payload) validate() error {
	if p.TrxCode == "" {
		return fmt.Errorf("transaction code is required")
	}
	if p.Tag == "" {
		return fmt.Errorf("business section tag is required")
	}
	if p.Tag == document.TagInfo || p.Tag == document.TagRoot {
		return fmt.Errorf("business section tag %q is reserved", p.Tag)
	}
	if p.BusinessCode == "" {
		return fmt.Errorf("business code is required")
	}
	seen := map[string]bool{document.TagBusinessCode: true}
	for _, f := range append(append([]document.Field(nil), p.Fields...), p.Extras...) {
		if f.Name == "" {
			return fmt.Errorf("business field name is required")
		}
		if seen[f.Name] {
			return fmt.Errorf("business field %q given more than once", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}
