package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yeeli/allinpay/pkg/gateway"
)

// Memory is an in-process Journal
type Memory struct {
	mu      sync.RWMutex
	records []*gateway.ExchangeRecord
	nextID  int
}

var _ Journal = (*Memory)(nil)

// NewMemory creates an empty in-memory journal
func NewMemory() *Memory {
	return &Memory{}
}

// RecordExchange stores a copy of rec and assigns its ID when empty.
func (m *Memory) RecordExchange(ctx context.Context, rec *gateway.ExchangeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ID == "" {
		m.nextID++
		rec.ID = fmt.Sprintf("%d", m.nextID)
	}
	m.records = append(m.records, copyRecord(rec))
	return nil
}

func (m *Memory) GetExchange(ctx context.Context, serial string) (*gateway.ExchangeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].Serial == serial {
			return copyRecord(m.records[i]), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListExchanges(ctx context.Context, filter *ExchangeFilter) ([]*gateway.ExchangeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*gateway.ExchangeRecord
	for _, rec := range m.records {
		if filter.Matches(rec) {
			out = append(out, copyRecord(rec))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(out) {
				return nil, nil
			}
			out = out[filter.Offset:]
		}
		if filter.Limit > 0 && len(out) > filter.Limit {
			out = out[:filter.Limit]
		}
	}
	return out, nil
}

func (m *Memory) Close(context.Context) error { return nil }

func (m *Memory) Ping(context.Context) error { return nil }

func copyRecord(rec *gateway.ExchangeRecord) *gateway.ExchangeRecord {
	c := *rec
	c.Request = append([]byte(nil), rec.Request...)
	c.Response = append([]byte(nil), rec.Response...)
	return &c
}
