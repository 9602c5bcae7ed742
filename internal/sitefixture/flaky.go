package sitefixture

import (
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"
)

// Mode is how a [Flaky] handler currently behaves.
type Mode string

const (
	ModeOK   Mode = "ok"
	ModeSlow Mode = "slow"
	ModeDown Mode = "down"
)

var modeCycle = []Mode{ModeOK, ModeSlow, ModeDown}

// Flaky wraps a handler and cycles it through ok, slow and down, holding
// each mode for a random time between MinHold and MaxHold. Slow responses
// are delayed by SlowDelay; down responses are 503s.
//
// Every response also gets 50-200ms of jitter, so element waits have
// something to wait for even while the site is healthy.
type Flaky struct {
	MinHold   time.Duration
	MaxHold   time.Duration
	SlowDelay time.Duration
	Jitter    bool

	next   http.Handler
	logger *slog.Logger

	mu           sync.Mutex
	idx          int
	nextChangeAt time.Time
}

// NewFlaky returns a Flaky around next that changes mode every 20-60s.
func NewFlaky(next http.Handler, logger *slog.Logger) *Flaky {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flaky{
		MinHold:   20 * time.Second,
		MaxHold:   60 * time.Second,
		SlowDelay: 3 * time.Second,
		Jitter:    true,
		next:      next,
		logger:    logger,
	}
}

// Mode reports the current mode, advancing it if its hold has expired.
func (f *Flaky) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	if f.nextChangeAt.IsZero() {
		f.nextChangeAt = now.Add(f.hold())
	} else if !now.Before(f.nextChangeAt) {
		old := modeCycle[f.idx]
		f.idx = (f.idx + 1) % len(modeCycle)
		f.nextChangeAt = now.Add(f.hold())
		f.logger.Info("site mode change", "from", old, "to", modeCycle[f.idx])
	}
	return modeCycle[f.idx]
}

func (f *Flaky) hold() time.Duration {
	if f.MaxHold <= f.MinHold {
		return f.MinHold
	}
	return f.MinHold + rand.N(f.MaxHold-f.MinHold+1)
}

func (f *Flaky) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.Jitter {
		time.Sleep(time.Duration(50+rand.IntN(150)) * time.Millisecond)
	}

	switch f.Mode() {
	case ModeSlow:
		select {
		case <-time.After(f.SlowDelay):
		case <-r.Context().Done():
			return
		}
	case ModeDown:
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	f.next.ServeHTTP(w, r)
}
