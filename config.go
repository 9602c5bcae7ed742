package sitewait

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

const (
	defaultTimeout      = 5 * time.Second
	defaultPollInterval = 500 * time.Millisecond
)

// Clock abstracts the passage of time for [Poll].
//
// The zero PollConfig uses the wall clock. Tests substitute a fake to make
// timing deterministic.
type Clock interface {
	Now() time.Time
	// After returns a channel that receives once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// PollConfig governs a single [Poll] call.
//
// PollConfig is a plain value: it can be built as a struct literal, with
// [NewPollConfig] and options, or from one of the presets ([ImplicitWait],
// [ExplicitWait], [FluentWait], [PageLoadTimeout]). The poller never
// modifies it.
type PollConfig struct {
	// Timeout bounds the total wall-clock time of the poll. Zero means a
	// single attempt with no sleep.
	Timeout time.Duration

	// PollInterval is the minimum spacing between attempts. Must be positive.
	PollInterval time.Duration

	// Ignore lists the failure kinds treated as "not ready yet".
	Ignore []FailureKind

	// MaxAttempts stops the poll after that many attempts even if time
	// remains. Zero means no limit.
	MaxAttempts int

	// Logger receives a Debug record per retry. Nil disables retry logging.
	Logger *slog.Logger

	// Clock defaults to the wall clock when nil.
	Clock Clock
}

// Validate checks the PollConfig invariants.
func (c PollConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", c.Timeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max attempts cannot be negative, got %d", c.MaxAttempts)
	}
	return nil
}

// Ignores reports whether kind is in the ignored set.
func (c PollConfig) Ignores(kind FailureKind) bool {
	return slices.Contains(c.Ignore, kind)
}

func (c PollConfig) clock() Clock {
	if c.Clock == nil {
		return wallClock{}
	}
	return c.Clock
}

// PollOption configures a [PollConfig] built by [NewPollConfig].
type PollOption func(*PollConfig) error

// NewPollConfig builds a validated [PollConfig].
//
// Defaults: 5s timeout, 500ms poll interval, no ignored kinds.
//
// Example:
//
//	cfg, err := sitewait.NewPollConfig(
//	    sitewait.WithTimeout(2 * time.Second),
//	    sitewait.WithPollInterval(30 * time.Millisecond),
//	    sitewait.Ignoring(sitewait.FailureNotFound),
//	)
func NewPollConfig(opts ...PollOption) (PollConfig, error) {
	cfg := PollConfig{
		Timeout:      defaultTimeout,
		PollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return PollConfig{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return PollConfig{}, err
	}
	return cfg, nil
}

// WithTimeout sets the overall time budget. Returns an error if d is negative.
func WithTimeout(d time.Duration) PollOption {
	return func(cfg *PollConfig) error {
		if d < 0 {
			return errors.New("timeout cannot be negative")
		}
		cfg.Timeout = d
		return nil
	}
}

// WithPollInterval sets the spacing between attempts. Returns an error if d
// is zero or negative.
func WithPollInterval(d time.Duration) PollOption {
	return func(cfg *PollConfig) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		cfg.PollInterval = d
		return nil
	}
}

// WithMaxAttempts caps the number of attempts. Zero removes the cap.
func WithMaxAttempts(n int) PollOption {
	return func(cfg *PollConfig) error {
		if n < 0 {
			return errors.New("max attempts cannot be negative")
		}
		cfg.MaxAttempts = n
		return nil
	}
}

// Ignoring adds failure kinds to the ignored set. Duplicates are dropped.
func Ignoring(kinds ...FailureKind) PollOption {
	return func(cfg *PollConfig) error {
		for _, k := range kinds {
			if k == "" {
				return errors.New("ignored failure kind cannot be empty")
			}
			if !cfg.Ignores(k) {
				cfg.Ignore = append(cfg.Ignore, k)
			}
		}
		return nil
	}
}

// WithPollLogger sets the logger used for per-retry Debug records.
func WithPollLogger(logger *slog.Logger) PollOption {
	return func(cfg *PollConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.Logger = logger
		return nil
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) PollOption {
	return func(cfg *PollConfig) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.Clock = c
		return nil
	}
}

// ImplicitWait mirrors a driver-wide implicit wait: element lookups retry
// every 500ms while the element is missing.
func ImplicitWait(timeout time.Duration) PollConfig {
	return PollConfig{
		Timeout:      timeout,
		PollInterval: defaultPollInterval,
		Ignore:       []FailureKind{FailureNotFound},
	}
}

// ExplicitWait mirrors a per-condition explicit wait. It also tolerates
// stale references, which show up while a page re-renders.
func ExplicitWait(timeout time.Duration) PollConfig {
	return PollConfig{
		Timeout:      timeout,
		PollInterval: defaultPollInterval,
		Ignore:       []FailureKind{FailureNotFound, FailureStaleReference},
	}
}

// FluentWait lets the caller choose the timeout, the polling frequency and
// the tolerated failure kinds.
func FluentWait(timeout, interval time.Duration, ignore ...FailureKind) PollConfig {
	return PollConfig{
		Timeout:      timeout,
		PollInterval: interval,
		Ignore:       slices.Clone(ignore),
	}
}

// PageLoadTimeout waits for navigation-style conditions and aborts on any
// failure.
func PageLoadTimeout(timeout time.Duration) PollConfig {
	return PollConfig{
		Timeout:      timeout,
		PollInterval: defaultPollInterval,
	}
}
