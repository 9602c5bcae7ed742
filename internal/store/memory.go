package store

import (
	"cmp"
	"slices"
	"sync"
)

// DefaultHistory is how many results per check a [MemoryStore] keeps when
// no limit is given.
const DefaultHistory = 20

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore provides thread-safe storage with a publish-subscribe mechanism
// for real-time updates. Results are keyed by check name; each check keeps a
// bounded history of its most recent runs.
//
// Subscribers receive updates via buffered channels (buffer size 100). Updates
// are sent non-blocking; if a subscriber's buffer is full, the update is dropped
// for that subscriber to prevent blocking the entire system.
type MemoryStore struct {
	mu           sync.RWMutex
	history      map[string][]CheckResult // newest last
	historyLimit int
	subscribers  map[chan CheckResult]struct{}
	subMu        sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation that keeps
// up to historyLimit results per check. A limit below 1 uses DefaultHistory.
func NewMemoryStore(historyLimit int) *MemoryStore {
	if historyLimit < 1 {
		historyLimit = DefaultHistory
	}
	return &MemoryStore{
		history:      make(map[string][]CheckResult),
		historyLimit: historyLimit,
		subscribers:  make(map[chan CheckResult]struct{}),
	}
}

// Update stores a [CheckResult] and notifies all subscribers.
//
// The oldest result of the check is discarded once its history is full.
func (m *MemoryStore) Update(result CheckResult) {
	m.mu.Lock()
	h := append(m.history[result.Name], result)
	if len(h) > m.historyLimit {
		h = slices.Clone(h[len(h)-m.historyLimit:])
	}
	m.history[result.Name] = h
	m.mu.Unlock()

	m.notifySubscribers(result)
}

// GetAll returns a snapshot of the latest result of every check, sorted
// by name.
func (m *MemoryStore) GetAll() []CheckResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]CheckResult, 0, len(m.history))
	for _, h := range m.history {
		results = append(results, h[len(h)-1])
	}
	slices.SortFunc(results, func(a, b CheckResult) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return results
}

// History returns a copy of one check's stored results, newest first.
func (m *MemoryStore) History(name string) ([]CheckResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.history[name]
	if !ok {
		return nil, false
	}
	out := slices.Clone(h)
	slices.Reverse(out)
	return out, true
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// The returned channel has a buffer of 100 messages. If the buffer fills
// (slow consumer), new updates are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan CheckResult {
	ch := make(chan CheckResult, 100)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// After calling Unsubscribe, the channel will be closed and no further
// updates will be sent. Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan CheckResult) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the result to all active subscribers.
//
// This is non-blocking: if a subscriber's channel buffer is full, the message
// is dropped for that subscriber rather than blocking the update path.
func (m *MemoryStore) notifySubscribers(result CheckResult) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- result:
		default:
			// subscriber is slow, drop the message
		}
	}
}
