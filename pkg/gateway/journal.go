package gateway

import (
	"context"
	"time"
)

// Outcome is the final state of an exchange
type Outcome string

const (
	OutcomeVerified Outcome = "verified"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Direction tells requests the merchant sent from notices it received.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// ExchangeRecord describes one request/response exchange. Request and
// Response hold the wire bytes; the merchant password and the signatures
// they contain are protocol data, so journals must be access controlled
// like any payment log.
type ExchangeRecord struct {
	ID             string    `bson:"_id,omitempty" json:"id,omitempty"`
	Serial         string    `bson:"serial" json:"serial"`
	TrxCode        string    `bson:"trx_code" json:"trxCode"`
	Direction      Direction `bson:"direction" json:"direction"`
	URL            string    `bson:"url" json:"url"`
	Outcome        Outcome   `bson:"outcome" json:"outcome"`
	StatusCode     int       `bson:"status_code,omitempty" json:"statusCode,omitempty"`
	RetCode        string    `bson:"ret_code,omitempty" json:"retCode,omitempty"`
	ErrMsg         string    `bson:"err_msg,omitempty" json:"errMsg,omitempty"`
	SignatureValid bool      `bson:"signature_valid" json:"signatureValid"`
	Request        []byte    `bson:"request,omitempty" json:"request,omitempty"`
	Response       []byte    `bson:"response,omitempty" json:"response,omitempty"`
	Error          string    `bson:"error,omitempty" json:"error,omitempty"`
	StartedAt      time.Time `bson:"started_at" json:"startedAt"`
	FinishedAt     time.Time `bson:"finished_at" json:"finishedAt"`
}

// Duration returns how long the exchange took.
func (r *ExchangeRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Journal receives a record of every exchange a Client performs.
type Journal interface {
	RecordExchange(ctx context.Context, rec *ExchangeRecord) error
}
