package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/jpalmerr/sitewait"
	"github.com/jpalmerr/sitewait/dashboard"
	"github.com/jpalmerr/sitewait/internal/checks"
	"github.com/jpalmerr/sitewait/internal/runner"
	"github.com/jpalmerr/sitewait/internal/server"
	"github.com/jpalmerr/sitewait/internal/store"
)

const (
	DefaultInterval       = time.Minute
	DefaultPort           = 8080
	DefaultMaxConcurrency = 2
	DefaultWaitTimeout    = 5 * time.Second
)

// Monitor runs browser checks against a site and serves their results.
//
// Monitor coordinates the runner, the result store and the status server.
// It is created using [New] with functional options and started with
// [Monitor.Start], or used for a single pass with [Monitor.RunOnce].
//
// The typical lifecycle is:
//
//	m, err := monitor.New(
//	    monitor.WithDriverFactory(browser.Factory(opts)),
//	    monitor.WithJob(runner.Job{Name: "login", Kind: "login_valid"}),
//	)
//	if err != nil {
//	    return err
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	m.Start(ctx) // blocks until context cancelled
type Monitor struct {
	title          string
	jobs           []runner.Job
	interval       time.Duration
	port           int
	maxConcurrency int
	historyLimit   int
	settings       runner.Settings
	logger         *slog.Logger
	callbacks      []func(runner.Result)
}

// New creates a new [Monitor] instance with the given options.
//
// At least one job and a driver factory must be configured. Every job needs
// a unique name and a registered check kind. A job without wait settings
// gets an explicit wait of DefaultWaitTimeout. Other options have defaults:
//   - Interval: 1 minute
//   - Port: 8080
//   - Max concurrency: 2 browsers
//   - History: 20 results per check
func New(opts ...Option) (*Monitor, error) {
	cfg := &monitorConfig{
		jobs:           []runner.Job{},
		interval:       DefaultInterval,
		port:           DefaultPort,
		maxConcurrency: DefaultMaxConcurrency,
		historyLimit:   store.DefaultHistory,
		launchBurst:    1,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.jobs) == 0 {
		return nil, errors.New("at least one job is required")
	}
	if cfg.factory == nil {
		return nil, errors.New("a driver factory is required")
	}

	// names key the store and the per-job interval tracking
	seen := make(map[string]bool, len(cfg.jobs))
	for i, job := range cfg.jobs {
		if job.Name == "" {
			return nil, fmt.Errorf("job %d: name is required", i)
		}
		if seen[job.Name] {
			return nil, fmt.Errorf("duplicate job name: %q", job.Name)
		}
		seen[job.Name] = true
		if _, ok := checks.Lookup(job.Kind); !ok {
			return nil, fmt.Errorf("job %q: unknown check kind %q", job.Name, job.Kind)
		}
		if job.Wait.PollInterval == 0 && job.Wait.Timeout == 0 {
			cfg.jobs[i].Wait = sitewait.ExplicitWait(DefaultWaitTimeout)
		}
		if err := cfg.jobs[i].Wait.Validate(); err != nil {
			return nil, fmt.Errorf("job %q: %w", job.Name, err)
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		title:          cfg.title,
		jobs:           cfg.jobs,
		interval:       cfg.interval,
		port:           cfg.port,
		maxConcurrency: cfg.maxConcurrency,
		historyLimit:   cfg.historyLimit,
		settings: runner.Settings{
			Factory:     cfg.factory,
			Site:        cfg.site,
			LaunchEvery: cfg.launchEvery,
			LaunchBurst: cfg.launchBurst,
			Preflight:   cfg.preflight,
		},
		logger:    logger,
		callbacks: cfg.callbacks,
	}, nil
}

// Start runs checks on their schedule and serves the dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled.
// Every job runs immediately, then again each time its interval elapses.
// Results are stored, pushed to dashboard clients and passed to the result
// callbacks.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails to start.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("sitewait starting", "job_count", len(m.jobs))
	m.logger.Info("checks scheduled", "interval", m.interval.String(), "max_concurrency", m.maxConcurrency)
	m.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", m.port))

	if ctx.Err() != nil {
		return nil
	}

	results := store.NewMemoryStore(m.historyLimit)

	scheduler := runner.NewScheduler(m.jobs, m.interval, m.maxConcurrency, m.settings, m.logger)
	scheduler.Start(ctx)

	// track the results consumer goroutine to ensure clean shutdown
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range scheduler.Results() {
			// store first so callbacks observe persisted data
			results.Update(toStoreResult(result))
			m.handle(result)
		}
	}()

	cleanup := func() {
		scheduler.Stop() // closes results channel
		wg.Wait()
	}

	httpServer := server.NewServer(results, m.port, dashboard.Assets, m.title, m.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	m.logger.Info("sitewait stopped")
	return nil
}

// RunOnce runs every job a single time and reports the results.
//
// No server is started. Result callbacks still fire, in job order.
func (m *Monitor) RunOnce(ctx context.Context) Report {
	start := time.Now()
	scheduler := runner.NewScheduler(m.jobs, m.interval, m.maxConcurrency, m.settings, m.logger)
	results := scheduler.RunOnce(ctx)
	for _, result := range results {
		m.handle(result)
	}
	return newReport(results, time.Since(start))
}

// handle logs one result and hands it to the callbacks.
func (m *Monitor) handle(result runner.Result) {
	for _, cb := range m.callbacks {
		invokeCallbackSafe(cb, copyResult(result), m.logger)
	}

	// DEBUG for passes to reduce noise
	logAttrs := []any{
		"check", result.Name,
		"kind", result.Kind,
		"run_id", result.RunID,
		"status", result.Status,
		"duration_ms", result.Duration.Milliseconds(),
	}
	if result.Status != checks.StatusPass {
		if result.FailureKind != "" {
			logAttrs = append(logAttrs, "failure_kind", result.FailureKind)
		}
		m.logger.Warn("check did not pass", append(logAttrs, "error", result.Message)...)
	} else {
		m.logger.Debug("check passed", logAttrs...)
	}
}

// Jobs returns a copy of the configured jobs.
func (m *Monitor) Jobs() []runner.Job {
	cp := make([]runner.Job, len(m.jobs))
	copy(cp, m.jobs)
	return cp
}

// Port returns the configured HTTP port for the dashboard server.
func (m *Monitor) Port() int {
	return m.port
}

// Interval returns the default interval between runs of a job.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// toStoreResult converts a runner result to its stored form.
func toStoreResult(r runner.Result) store.CheckResult {
	var errStr *string
	if r.Status != checks.StatusPass {
		s := r.Message
		errStr = &s
	}

	return store.CheckResult{
		RunID:       r.RunID,
		Name:        r.Name,
		Kind:        r.Kind,
		Status:      r.Status.String(),
		FailureKind: r.FailureKind.String(),
		Labels:      maps.Clone(r.Labels),
		DurationMs:  r.Duration.Milliseconds(),
		StartedAt:   r.StartedAt,
		Error:       errStr,
	}
}

// copyResult gives each callback its own labels map.
func copyResult(r runner.Result) runner.Result {
	r.Labels = maps.Clone(r.Labels)
	return r
}

// invokeCallbackSafe calls a result callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(runner.Result), result runner.Result, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("result callback panicked",
				"panic", r,
				"check", result.Name,
			)
		}
	}()
	cb(result)
}
