package account

import (
	"context"
	"fmt"
	"regexp"

	"github.com/yeeli/allinpay/pkg/document"
	"github.com/yeeli/allinpay/pkg/request"
	"github.com/yeeli/allinpay/pkg/response"
)

// Charge protocol constants
const (
	TrxCodeCharge       = "300006"
	TagChargeRequest    = "CHARGEREQ"
	DefaultBusinessCode = "100005"
)

// Charge field names
const (
	FieldBankAccount = "BANKACCT"
	FieldAmount      = "AMOUNT"
	FieldSummary     = "SUMMARY"
	FieldRemark      = "REMARK"
)

var amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)

// Charge is an account charge request
type Charge struct {
	BankAccount  string
	Amount       string
	BusinessCode string

	// Summary is the online banking note, Remark the merchant note. Empty
	// values are omitted from the request.
	Summary string
	Remark  string

	// Serial overrides the generated request serial number
	Serial string
}

// ChargeOption configures a Charge
type ChargeOption func(*Charge)

// WithBusinessCode overrides DefaultBusinessCode.
func WithBusinessCode(code string) ChargeOption {
	return func(c *Charge) {
		c.BusinessCode = code
	}
}

// WithSummary sets the online banking note.
func WithSummary(summary string) ChargeOption {
	return func(c *Charge) {
		c.Summary = summary
	}
}

// WithRemark sets the merchant note.
func WithRemark(remark string) ChargeOption {
	return func(c *Charge) {
		c.Remark = remark
	}
}

// WithSerial sets the request serial number, e.g. to correlate with a
// merchant order.
func WithSerial(serial string) ChargeOption {
	return func(c *Charge) {
		c.Serial = serial
	}
}

// NewCharge creates a charge of amount from bankAccount.
func NewCharge(bankAccount, amount string, opts ...ChargeOption) Charge {
	c := Charge{
		BankAccount:  bankAccount,
		Amount:       amount,
		BusinessCode: DefaultBusinessCode,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Validate checks the mandatory fields.
func (c Charge) Validate() error {
	if c.BankAccount == "" {
		return fmt.Errorf("bank account is required")
	}
	if !amountPattern.MatchString(c.Amount) {
		return fmt.Errorf("invalid amount %q", c.Amount)
	}
	return nil
}

// Payload implements request.Business.
func (c Charge) Payload() request.Payload {
	code := c.BusinessCode
	if code == "" {
		code = DefaultBusinessCode
	}
	return request.Payload{
		TrxCode:      TrxCodeCharge,
		Tag:          TagChargeRequest,
		BusinessCode: code,
		Fields: []document.Field{
			{Name: FieldBankAccount, Value: c.BankAccount},
			{Name: FieldAmount, Value: c.Amount},
		},
		Extras: []document.Field{
			{Name: FieldSummary, Value: c.Summary},
			{Name: FieldRemark, Value: c.Remark},
		},
		Serial: c.Serial,
	}
}

// Doer performs a business operation against the gateway.
type Doer interface {
	Do(ctx context.Context, b request.Business) (*response.Result, error)
}

// Service exposes account operations
type Service struct {
	client Doer
}

// NewService creates an account service on top of a gateway client.
func NewService(client Doer) *Service {
	return &Service{client: client}
}

// Charge tops up the merchant account. The verified gateway reply is
// returned as is; check Result.Succeeded for the business outcome.
func (s *Service) Charge(ctx context.Context, bankAccount, amount string, opts ...ChargeOption) (*response.Result, error) {
	c := NewCharge(bankAccount, amount, opts...)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("charge: %w", err)
	}
	return s.client.Do(ctx, c)
}
