package checks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/jpalmerr/sitewait"
	"github.com/jpalmerr/sitewait/internal/driver"
)

// Status is the verdict of one check run.
type Status string

const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusError Status = "error"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Default site settings, matching the public demo store.
const (
	DefaultBaseURL   = "https://www.saucedemo.com"
	DefaultAlertsURL = "https://www.selenium.dev/selenium/web/alerts.html"
	DefaultUsername  = "standard_user"
	DefaultPassword  = "secret_sauce"
)

// DefaultListboxURL hosts the multiple select used by select_multiple.
const DefaultListboxURL = "https://only-testing-blog.blogspot.com/"

// Env is everything a check needs for one run.
type Env struct {
	Driver    driver.Driver
	BaseURL   string
	AlertsURL string
	Username  string
	Password  string
	// Wait is used for every element wait the check performs.
	Wait   sitewait.PollConfig
	Params map[string]string
	Logger *slog.Logger
}

// Param returns the named parameter or def when it is unset.
func (e Env) Param(name, def string) string {
	if v, ok := e.Params[name]; ok && v != "" {
		return v
	}
	return def
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Func runs one check. It returns nil on success, an [*AssertionError] when
// the site behaved differently than expected, and any other error when the
// check could not be completed.
type Func func(ctx context.Context, env Env) error

// Check is a registered check kind.
type Check struct {
	Kind        string
	Description string
	Run         Func

	// Origin is the page the check starts on. Nil means the base URL.
	Origin func(env Env) string
}

// StartURL returns the first URL the check opens.
func (c Check) StartURL(env Env) string {
	if c.Origin != nil {
		return c.Origin(env)
	}
	return env.BaseURL
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Check{}
)

// Register adds a check kind. Registering the same kind twice is an error.
func Register(c Check) error {
	if c.Kind == "" {
		return errors.New("check kind cannot be empty")
	}
	if c.Run == nil {
		return fmt.Errorf("check %q has no run function", c.Kind)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[c.Kind]; dup {
		return fmt.Errorf("check %q already registered", c.Kind)
	}
	registry[c.Kind] = c
	return nil
}

func mustRegister(c Check) {
	if err := Register(c); err != nil {
		panic(err)
	}
}

// Lookup returns the check registered under kind.
func Lookup(kind string) (Check, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[kind]
	return c, ok
}

// All returns every registered check sorted by kind.
func All() []Check {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Check, 0, len(registry))
	for _, kind := range slices.Sorted(maps.Keys(registry)) {
		out = append(out, registry[kind])
	}
	return out
}

// AssertionError reports a site that did not behave as the check expected.
type AssertionError struct {
	What string
	Got  any
	Want any
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: got %v, want %v", e.What, e.Got, e.Want)
}

func mismatch(what string, got, want any) error {
	return &AssertionError{What: what, Got: got, Want: want}
}

// Classify maps the error returned by a check to a status and, for errors
// that carry one, the failure kind that ended the run.
//
// Assertion errors and waits that timed out are failures: the site was
// reachable but did not reach the expected state. Everything else,
// including cancellation, is an error.
func Classify(err error) (Status, sitewait.FailureKind) {
	if err == nil {
		return StatusPass, ""
	}
	var ae *AssertionError
	if errors.As(err, &ae) {
		return StatusFail, ""
	}
	if errors.Is(err, sitewait.ErrTimedOut) {
		var te *sitewait.TimeoutError
		if errors.As(err, &te) && te.Last != nil {
			return StatusFail, sitewait.KindOf(te.Last)
		}
		return StatusFail, sitewait.FailureTimeout
	}
	return StatusError, sitewait.KindOf(err)
}
