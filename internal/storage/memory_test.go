package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeeli/allinpay/pkg/gateway"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func record(serial string, offset time.Duration, outcome gateway.Outcome) *gateway.ExchangeRecord {
	return &gateway.ExchangeRecord{
		Serial:     serial,
		TrxCode:    "300006",
		Outcome:    outcome,
		RetCode:    "0000",
		Request:    []byte("<AIPG/>"),
		StartedAt:  base.Add(offset),
		FinishedAt: base.Add(offset + time.Second),
	}
}

func TestMemory_RecordAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec := record("sn-1", 0, gateway.OutcomeVerified)
	require.NoError(t, m.RecordExchange(ctx, rec))
	assert.NotEmpty(t, rec.ID)

	rec.Request[0] = 'X'

	got, err := m.GetExchange(ctx, "sn-1")
	require.NoError(t, err)
	assert.Equal(t, "sn-1", got.Serial)
	assert.Equal(t, "<AIPG/>", string(got.Request), "stored copy must be independent")
	assert.Equal(t, time.Second, got.Duration())

	_, err = m.GetExchange(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_GetReturnsLatest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.RecordExchange(ctx, record("sn-1", 0, gateway.OutcomeFailed)))
	require.NoError(t, m.RecordExchange(ctx, record("sn-1", time.Minute, gateway.OutcomeVerified)))

	got, err := m.GetExchange(ctx, "sn-1")
	require.NoError(t, err)
	assert.Equal(t, gateway.OutcomeVerified, got.Outcome)
}

func TestMemory_ListExchanges(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 5; i++ {
		outcome := gateway.OutcomeVerified
		if i%2 == 1 {
			outcome = gateway.OutcomeFailed
		}
		require.NoError(t, m.RecordExchange(ctx, record(fmt.Sprintf("sn-%d", i), time.Duration(i)*time.Minute, outcome)))
	}

	all, err := m.ListExchanges(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "sn-4", all[0].Serial, "newest first")

	failed, err := m.ListExchanges(ctx, &ExchangeFilter{Outcome: gateway.OutcomeFailed})
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, "sn-3", failed[0].Serial)

	since := base.Add(2 * time.Minute)
	until := base.Add(4 * time.Minute)
	window, err := m.ListExchanges(ctx, &ExchangeFilter{Since: &since, Until: &until})
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "sn-3", window[0].Serial)
	assert.Equal(t, "sn-2", window[1].Serial)

	page, err := m.ListExchanges(ctx, &ExchangeFilter{Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "sn-3", page[0].Serial)

	empty, err := m.ListExchanges(ctx, &ExchangeFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)

	none, err := m.ListExchanges(ctx, &ExchangeFilter{TrxCode: "200001"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	assert.Error(t, m.RecordExchange(ctx, record("sn-1", 0, gateway.OutcomeVerified)))
	_, err := m.GetExchange(ctx, "sn-1")
	assert.Error(t, err)
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.RecordExchange(ctx, record(fmt.Sprintf("sn-%d", i), 0, gateway.OutcomeVerified))
		}(i)
	}
	wg.Wait()

	all, err := m.ListExchanges(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 20)

	ids := map[string]bool{}
	for _, rec := range all {
		ids[rec.ID] = true
	}
	assert.Len(t, ids, 20)
}

func TestExchangeFilter_NilMatches(t *testing.T) {
	var f *ExchangeFilter
	assert.True(t, f.Matches(record("sn", 0, gateway.OutcomeFailed)))
	assert.False(t, (&ExchangeFilter{RetCode: "0001"}).Matches(record("sn", 0, gateway.OutcomeFailed)))

	inbound := record("sn", 0, gateway.OutcomeVerified)
	inbound.Direction = gateway.DirectionInbound
	assert.True(t, (&ExchangeFilter{Direction: gateway.DirectionInbound}).Matches(inbound))
	assert.False(t, (&ExchangeFilter{Direction: gateway.DirectionOutbound}).Matches(inbound))
}

func TestMemory_AsGatewayJournal(t *testing.T) {
	var j gateway.Journal = NewMemory()
	assert.NoError(t, j.RecordExchange(context.Background(), record("sn", 0, gateway.OutcomeVerified)))
}
