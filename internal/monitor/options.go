package monitor

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jpalmerr/sitewait/internal/driver"
	"github.com/jpalmerr/sitewait/internal/runner"
)

// monitorConfig holds mutable state during Monitor construction.
type monitorConfig struct {
	title          string
	jobs           []runner.Job
	interval       time.Duration
	port           int
	maxConcurrency int
	historyLimit   int
	factory        driver.Factory
	site           runner.Site
	launchEvery    time.Duration
	launchBurst    int
	preflight      bool
	logger         *slog.Logger
	callbacks      []func(runner.Result)
}

// Option is a function that configures a [Monitor] instance during construction.
//
// Options return an error if validation fails.
type Option func(*monitorConfig) error

// WithJob adds a single job to the schedule.
//
// Can be called multiple times. At least one job must be configured for
// [New] to succeed.
func WithJob(job runner.Job) Option {
	return func(cfg *monitorConfig) error {
		cfg.jobs = append(cfg.jobs, job)
		return nil
	}
}

// WithJobs adds several jobs at once.
func WithJobs(jobs ...runner.Job) Option {
	return func(cfg *monitorConfig) error {
		cfg.jobs = append(cfg.jobs, jobs...)
		return nil
	}
}

// WithInterval sets how often a job runs when it has no interval of its own.
//
// Returns an error if the duration is zero or negative.
func WithInterval(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *monitorConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMaxConcurrency sets how many browsers may be open at once.
//
// Each running check holds its own browser, so this bounds memory use
// as much as it bounds load on the target site.
//
// Returns an error if the value is zero or negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *monitorConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithHistory sets how many results per check the dashboard keeps.
func WithHistory(n int) Option {
	return func(cfg *monitorConfig) error {
		if n <= 0 {
			return errors.New("history must be positive")
		}
		cfg.historyLimit = n
		return nil
	}
}

// WithDriverFactory sets how a browser is opened for every run.
//
// Returns an error if the factory is nil.
func WithDriverFactory(f driver.Factory) Option {
	return func(cfg *monitorConfig) error {
		if f == nil {
			return errors.New("driver factory cannot be nil")
		}
		cfg.factory = f
		return nil
	}
}

// WithSite sets the target site and the credentials checks log in with.
func WithSite(site runner.Site) Option {
	return func(cfg *monitorConfig) error {
		cfg.site = site
		return nil
	}
}

// WithLaunchRate limits browser launches to perSecond, allowing burst
// launches back to back. A perSecond of zero removes the limit.
//
// Example:
//
//	m, err := monitor.New(
//	    monitor.WithJobs(jobs...),
//	    monitor.WithLaunchRate(0.5, 2), // one launch every 2s after the first two
//	)
func WithLaunchRate(perSecond float64, burst int) Option {
	return func(cfg *monitorConfig) error {
		if perSecond < 0 {
			return errors.New("launch rate cannot be negative")
		}
		if burst < 1 {
			return errors.New("launch burst must be at least 1")
		}
		cfg.launchEvery = 0
		if perSecond > 0 {
			cfg.launchEvery = time.Duration(float64(time.Second) / perSecond)
		}
		cfg.launchBurst = burst
		return nil
	}
}

// WithPreflight makes every run first poll the check's start page over
// plain HTTP, and skip launching a browser while the site does not answer.
func WithPreflight(enabled bool) Option {
	return func(cfg *monitorConfig) error {
		cfg.preflight = enabled
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *monitorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithResultCallback registers a function to be called after every check run.
//
// Multiple callbacks run in registration order, synchronously from a single
// goroutine. Callbacks must be non-blocking; slow work belongs in a separate
// goroutine. Panics within callbacks are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithResultCallback(cb func(runner.Result)) Option {
	return func(cfg *monitorConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard title. Defaults to "sitewait".
func WithTitle(title string) Option {
	return func(cfg *monitorConfig) error {
		cfg.title = title
		return nil
	}
}
