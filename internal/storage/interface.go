// Package storage provides the exchange journal: a durable record of every
// request/response exchange with the gateway.
//
// # Interface Design
//
// [Journal] extends gateway.Journal, which the client writes to, with the
// queries needed for reconciliation and audits.
//
// # Implementations
//
//   - [Memory]: in-process journal for tests and short-lived tools
//   - mongodb: production journal in a MongoDB collection
//
// # Concurrency
//
// All implementations must be safe for concurrent use from multiple
// goroutines.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/yeeli/allinpay/pkg/gateway"
)

// ErrNotFound is returned when no exchange matches
var ErrNotFound = errors.New("exchange not found")

// Journal stores and queries exchange records
type Journal interface {
	gateway.Journal

	// GetExchange returns the latest record for a request serial number
	GetExchange(ctx context.Context, serial string) (*gateway.ExchangeRecord, error)

	// ListExchanges returns records matching filter, newest first
	ListExchanges(ctx context.Context, filter *ExchangeFilter) ([]*gateway.ExchangeRecord, error)

	// Close releases storage resources
	Close(ctx context.Context) error

	// Ping checks connectivity
	Ping(ctx context.Context) error
}

// ExchangeFilter selects exchange records
type ExchangeFilter struct {
	TrxCode   string
	Direction gateway.Direction
	Outcome   gateway.Outcome
	RetCode   string
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

// Matches reports whether rec satisfies f. A nil filter matches everything.
func (f *ExchangeFilter) Matches(rec *gateway.ExchangeRecord) bool {
	if f == nil {
		return true
	}
	if f.TrxCode != "" && rec.TrxCode != f.TrxCode {
		return false
	}
	if f.Direction != "" && rec.Direction != f.Direction {
		return false
	}
	if f.Outcome != "" && rec.Outcome != f.Outcome {
		return false
	}
	if f.RetCode != "" && rec.RetCode != f.RetCode {
		return false
	}
	if f.Since != nil && rec.StartedAt.Before(*f.Since) {
		return false
	}
	if f.Until != nil && !rec.StartedAt.Before(*f.Until) {
		return false
	}
	return true
}
