package reliability

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ExchangeState represents the state of a gateway exchange
type ExchangeState int

const (
	StateAssembled ExchangeState = iota // Request built and signed
	StateSending                        // Request handed to the transport
	StateVerified                       // Response signature verified
	StateRejected                       // Response signature did not verify
	StateFailed                         // Transport or encoding failure
)

func (s ExchangeState) String() string {
	switch s {
	case StateAssembled:
		return "assembled"
	case StateSending:
		return "sending"
	case StateVerified:
		return "verified"
	case StateRejected:
		return "rejected"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("ExchangeState(%d)", int(s))
	}
}

// Settled reports whether the exchange reached a verified outcome.
func (s ExchangeState) Settled() bool {
	return s == StateVerified
}

// Exchange is a snapshot of one tracked request
type Exchange struct {
	Serial    string
	TrxCode   string
	State     ExchangeState
	TrackedAt time.Time
	SentAt    time.Time
	DoneAt    time.Time
	RetCode   string
	Errors    []string
}

// ExchangeTracker tracks exchanges by request serial number
type ExchangeTracker struct {
	mu        sync.RWMutex
	exchanges map[string]*Exchange
	now       func() time.Time

	// Duplicate detection
	receivedDocuments map[string]time.Time
	duplicateWindow   time.Duration
}

// NewExchangeTracker creates a new exchange tracker
func NewExchangeTracker(duplicateWindow time.Duration) *ExchangeTracker {
	return &ExchangeTracker{
		exchanges:         make(map[string]*Exchange),
		receivedDocuments: make(map[string]time.Time),
		duplicateWindow:   duplicateWindow,
		now:               time.Now,
	}
}

// Track starts tracking an exchange. Tracking a serial again resets it.
func (t *ExchangeTracker) Track(serial, trxCode string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.exchanges[serial] = &Exchange{
		Serial:    serial,
		TrxCode:   trxCode,
		State:     StateAssembled,
		TrackedAt: t.now(),
		Errors:    make([]string, 0),
	}
}

// MarkSending marks an exchange as being sent
func (t *ExchangeTracker) MarkSending(serial string) error {
	return t.update(serial, func(ex *Exchange) {
		ex.State = StateSending
		ex.SentAt = t.now()
	})
}

// RecordResult records a verified response and its INFO/RET_CODE
func (t *ExchangeTracker) RecordResult(serial, retCode string) error {
	return t.update(serial, func(ex *Exchange) {
		ex.State = StateVerified
		ex.RetCode = retCode
		ex.DoneAt = t.now()
	})
}

// RecordRejected records a response whose signature did not verify
func (t *ExchangeTracker) RecordRejected(serial string, err error) error {
	return t.update(serial, func(ex *Exchange) {
		ex.State = StateRejected
		ex.DoneAt = t.now()
		if err != nil {
			ex.Errors = append(ex.Errors, err.Error())
		}
	})
}

// RecordError records a failure for an exchange
func (t *ExchangeTracker) RecordError(serial string, err error) error {
	return t.update(serial, func(ex *Exchange) {
		ex.State = StateFailed
		ex.DoneAt = t.now()
		if err != nil {
			ex.Errors = append(ex.Errors, err.Error())
		}
	})
}

func (t *ExchangeTracker) update(serial string, fn func(*Exchange)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ex, exists := t.exchanges[serial]
	if !exists {
		return fmt.Errorf("exchange %s not tracked", serial)
	}
	fn(ex)
	return nil
}

// Get returns a copy of a tracked exchange
func (t *ExchangeTracker) Get(serial string) (Exchange, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ex, exists := t.exchanges[serial]
	if !exists {
		return Exchange{}, false
	}
	return ex.snapshot(), true
}

// Unsettled returns exchanges that were sent but never verified, oldest
// first. Their outcome at the gateway is unknown.
func (t *ExchangeTracker) Unsettled() []Exchange {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Exchange
	for _, ex := range t.exchanges {
		if !ex.SentAt.IsZero() && !ex.State.Settled() {
			out = append(out, ex.snapshot())
		}
	}
	sortByTrackedAt(out)
	return out
}

// Remove stops tracking an exchange
func (t *ExchangeTracker) Remove(serial string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.exchanges, serial)
}

// Len returns the number of tracked exchanges
func (t *ExchangeTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.exchanges)
}

// IsDuplicate checks if a document hash was received within the window
func (t *ExchangeTracker) IsDuplicate(hash string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	receivedAt, exists := t.receivedDocuments[hash]
	if !exists {
		return false
	}
	return t.now().Sub(receivedAt) < t.duplicateWindow
}

// MarkReceived records a document hash for duplicate detection
func (t *ExchangeTracker) MarkReceived(hash string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.receivedDocuments[hash] = t.now()
}

// Prune drops verified exchanges finished before cutoff and expired
// duplicate entries. Unsettled exchanges are kept. It returns the number of
// exchanges removed.
func (t *ExchangeTracker) Prune(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for serial, ex := range t.exchanges {
		if ex.State.Settled() && ex.DoneAt.Before(cutoff) {
			delete(t.exchanges, serial)
			removed++
		}
	}

	now := t.now()
	for hash, receivedAt := range t.receivedDocuments {
		if now.Sub(receivedAt) >= t.duplicateWindow {
			delete(t.receivedDocuments, hash)
		}
	}
	return removed
}

func (ex *Exchange) snapshot() Exchange {
	c := *ex
	c.Errors = append([]string(nil), ex.Errors...)
	return c
}

func sortByTrackedAt(exs []Exchange) {
	sort.Slice(exs, func(i, j int) bool {
		return exs[i].TrackedAt.Before(exs[j].TrackedAt)
	})
}

// ComputeDocumentHash computes a hash of document bytes for duplicate detection
func ComputeDocumentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
