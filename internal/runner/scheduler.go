package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jpalmerr/sitewait"
	"github.com/jpalmerr/sitewait/internal/checks"
	"github.com/jpalmerr/sitewait/internal/driver"
)

// DefaultJobTimeout bounds a whole check run, browser launch included.
const DefaultJobTimeout = 2 * time.Minute

// Job is one named check to run on a schedule.
type Job struct {
	// Name is the display name and the key results are stored under.
	Name string

	// Kind selects the registered check to run.
	Kind string

	// Interval is the time between runs. If 0, the scheduler's global
	// interval is used.
	Interval time.Duration

	// Timeout bounds a single run. If 0, DefaultJobTimeout is used.
	Timeout time.Duration

	// Wait is the element wait configuration handed to the check.
	Wait sitewait.PollConfig

	// Params are check-specific settings.
	Params map[string]string

	// Labels contains key-value metadata for grouping on the dashboard.
	Labels map[string]string
}

// Result is the outcome of running a single job once.
type Result struct {
	// RunID identifies this run in logs.
	RunID string

	Name string
	Kind string

	// Status is pass, fail or error.
	Status checks.Status

	// FailureKind is the wait failure that ended the run, if any.
	FailureKind sitewait.FailureKind

	// Message is a human-readable description of the failure.
	Message string

	Labels map[string]string

	// Duration covers the browser launch and the check itself.
	Duration time.Duration

	// StartedAt is when the run began.
	StartedAt time.Time

	// Error is the raw error returned by the check.
	Error error
}

// Site holds the target site settings shared by every job.
type Site struct {
	BaseURL   string
	AlertsURL string
	Username  string
	Password  string
}

// Settings configures how the scheduler obtains browsers.
type Settings struct {
	// Factory opens a fresh browser session for every run.
	Factory driver.Factory

	Site Site

	// LaunchEvery spaces out browser launches. Zero means no limit.
	LaunchEvery time.Duration

	// LaunchBurst is how many launches may happen back to back before
	// LaunchEvery applies. Values below 1 are treated as 1.
	LaunchBurst int

	// Preflight polls a check's start page over HTTP before launching a
	// browser for it, using the job's wait budget.
	Preflight bool
}

// Scheduler manages periodic runs of multiple jobs.
//
// Scheduler implements a worker pool pattern, running configured jobs at
// their respective intervals with configurable concurrency. Results are
// emitted to a channel that can be consumed by the caller.
//
// The scheduler runs all jobs immediately on start, then uses a
// tick-and-check pattern where it ticks at the GCD of all job intervals
// and runs only jobs that are due.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	jobs           []Job
	interval       time.Duration // global default interval
	maxConcurrency int
	settings       Settings
	limiter        *rate.Limiter
	preflight      *preflight
	results        chan Result
	logger         *slog.Logger
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once

	// per-job timing for tick-and-check pattern
	lastRunAt    map[string]time.Time
	baseInterval time.Duration
}

// NewScheduler creates a new [Scheduler].
//
// Parameters:
//   - jobs: List of jobs to run
//   - interval: Default time between runs of a job
//   - maxConcurrency: Maximum number of browsers open at once
//   - settings: Browser factory, target site and launch throttling
//   - logger: Logger for scheduler events (panic recovery, etc.)
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop]. Results are available via [Scheduler.Results].
func NewScheduler(jobs []Job, interval time.Duration, maxConcurrency int, settings Settings, logger *slog.Logger) *Scheduler {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	limit := rate.Inf
	if settings.LaunchEvery > 0 {
		limit = rate.Every(settings.LaunchEvery)
	}
	burst := max(settings.LaunchBurst, 1)

	s := &Scheduler{
		jobs:           jobs,
		interval:       interval,
		maxConcurrency: maxConcurrency,
		settings:       settings,
		limiter:        rate.NewLimiter(limit, burst),
		results:        make(chan Result, len(jobs)),
		logger:         logger,
	}
	if settings.Preflight {
		s.preflight = newPreflight()
	}
	return s
}

// Results returns a receive-only channel that emits [Result] values.
//
// The channel is closed when the scheduler stops. Consumers should read from
// this channel until it is closed to receive all results.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// calculateBaseInterval determines the tick interval for the scheduler.
// Uses the GCD of all job intervals to ensure timely runs.
func (s *Scheduler) calculateBaseInterval() time.Duration {
	if len(s.jobs) == 0 {
		return s.interval
	}

	result := s.intervalOf(s.jobs[0])
	for _, job := range s.jobs[1:] {
		result = gcdDuration(result, s.intervalOf(job))
	}

	// floor at 1 second to prevent CPU thrashing
	if result < time.Second {
		result = time.Second
	}

	return result
}

func (s *Scheduler) intervalOf(job Job) time.Duration {
	if job.Interval > 0 {
		return job.Interval
	}
	return s.interval
}

// gcdDuration calculates the greatest common divisor of two durations.
func gcdDuration(a, b time.Duration) time.Duration {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Start begins the scheduling loop in a background goroutine.
//
// Start is non-blocking and returns immediately. The scheduler will:
//  1. Run all jobs immediately
//  2. Tick at the GCD of all job intervals
//  3. Run only jobs that are due on each tick
//  4. Continue until [Scheduler.Stop] is called or the context is cancelled
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.lastRunAt = make(map[string]time.Time, len(s.jobs))
	s.baseInterval = s.calculateBaseInterval()

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.results) })

		emit := func(r Result) bool {
			select {
			case s.results <- r:
				return true
			case <-runCtx.Done():
				return false
			}
		}

		s.runDueJobs(runCtx, true, emit)

		ticker := time.NewTicker(s.baseInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.runDueJobs(runCtx, false, emit)
			}
		}
	}()
}

// Stop halts the scheduler and waits for all goroutines to complete.
//
// Stop cancels the scheduler's context and blocks until:
//   - The scheduling loop exits
//   - All in-flight runs complete and their browsers are closed
//   - The results channel is closed
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.preflight.Close()

	// ensure channel is closed even if Start() was never called
	s.closeOnce.Do(func() { close(s.results) })
}

// RunOnce runs every job once, waits for all of them and returns the results
// in job order. It does not use the results channel and may be called
// without Start.
func (s *Scheduler) RunOnce(ctx context.Context) []Result {
	results := make([]Result, len(s.jobs))
	index := make(map[string]int, len(s.jobs))
	for i, job := range s.jobs {
		index[job.Name] = i
	}

	var mu sync.Mutex
	s.runJobs(ctx, s.jobs, func(r Result) bool {
		mu.Lock()
		results[index[r.Name]] = r
		mu.Unlock()
		return true
	})

	s.preflight.Close()

	// jobs skipped because ctx ended before they were dispatched
	for i, job := range s.jobs {
		if results[i].RunID == "" {
			results[i] = s.notRun(job, ctx.Err())
		}
	}
	return results
}

// runDueJobs runs only jobs that are due based on their intervals.
// If immediate is true, runs all jobs regardless of timing.
//
// TIMING SEMANTIC: lastRunAt is updated when a run STARTS, not when it
// completes. This prevents overlapping runs of the same job but means
// effective interval = configured interval + run duration for slow checks.
func (s *Scheduler) runDueJobs(ctx context.Context, immediate bool, emit func(Result) bool) {
	now := time.Now()
	due := make([]Job, 0, len(s.jobs))

	s.mu.Lock()
	for _, job := range s.jobs {
		if immediate {
			due = append(due, job)
			s.lastRunAt[job.Name] = now
			continue
		}

		last, exists := s.lastRunAt[job.Name]
		if !exists || now.Sub(last) >= s.intervalOf(job) {
			due = append(due, job)
			s.lastRunAt[job.Name] = now
		}
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return
	}

	s.runJobs(ctx, due, emit)
}

// runJobs runs a subset of jobs concurrently, respecting maxConcurrency.
func (s *Scheduler) runJobs(ctx context.Context, jobs []Job, emit func(Result) bool) {
	queue := make(chan Job, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < min(s.maxConcurrency, len(jobs)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				if !emit(s.runJob(ctx, job)) {
					return
				}
			}
		}()
	}

	for _, job := range jobs {
		select {
		case queue <- job:
		case <-ctx.Done():
			close(queue)
			wg.Wait()
			return
		}
	}
	close(queue)

	wg.Wait()
}

// runJob opens a browser, runs a single check and returns the result.
func (s *Scheduler) runJob(ctx context.Context, job Job) Result {
	res := Result{
		RunID:     uuid.NewString(),
		Name:      job.Name,
		Kind:      job.Kind,
		Labels:    job.Labels,
		StartedAt: time.Now(),
	}
	logger := s.logger.With("job", job.Name, "kind", job.Kind, "run_id", res.RunID)

	finish := func(err error) Result {
		res.Duration = time.Since(res.StartedAt)
		res.Status, res.FailureKind = checks.Classify(err)
		if err != nil {
			res.Error = err
			res.Message = err.Error()
		}
		logger.Debug("check finished",
			"status", res.Status,
			"failure_kind", res.FailureKind,
			"duration", res.Duration,
		)
		return res
	}

	check, ok := checks.Lookup(job.Kind)
	if !ok {
		return finish(fmt.Errorf("unknown check kind %q", job.Kind))
	}
	if s.settings.Factory == nil {
		return finish(errors.New("no browser factory configured"))
	}

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	env := checks.Env{
		BaseURL:   s.settings.Site.BaseURL,
		AlertsURL: s.settings.Site.AlertsURL,
		Username:  s.settings.Site.Username,
		Password:  s.settings.Site.Password,
		Wait:      job.Wait,
		Params:    job.Params,
		Logger:    logger,
	}

	if s.preflight != nil {
		if err := s.preflight.wait(runCtx, check.StartURL(env), preflightBudget(timeout), logger); err != nil {
			return finish(s.contextErr(ctx, runCtx, timeout, err))
		}
	}

	if err := s.limiter.Wait(runCtx); err != nil {
		return finish(fmt.Errorf("wait for browser slot: %w", s.contextErr(ctx, runCtx, timeout, err)))
	}

	drv, err := s.settings.Factory(runCtx)
	if err != nil {
		return finish(fmt.Errorf("open browser: %w", s.contextErr(ctx, runCtx, timeout, err)))
	}
	defer func() {
		if err := drv.Close(); err != nil {
			logger.Warn("close browser failed", "error", err)
		}
	}()

	env.Driver = drv
	err = s.safeRun(runCtx, check, env)
	return finish(s.contextErr(ctx, runCtx, timeout, err))
}

// contextErr reports a run that hit its own timeout as a timeout rather than
// a cancellation. Cancellation of the parent context is left as is.
func (s *Scheduler) contextErr(parent, runCtx context.Context, timeout time.Duration, err error) error {
	if err == nil || parent.Err() != nil {
		return err
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return sitewait.Failf(sitewait.FailureTimeout, "run exceeded %s: %w", timeout, err)
	}
	return err
}

// safeRun calls the check with panic recovery.
// If the check panics, it logs the full stack trace with a correlation ID
// and returns an error containing the ID.
func (s *Scheduler) safeRun(ctx context.Context, check checks.Check, env checks.Env) (err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()

			// log full context server-side for debugging
			s.logger.Error("check panic",
				"correlation_id", correlationID,
				"kind", check.Kind,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack),
			)

			err = fmt.Errorf("check panic (correlation_id: %s)", correlationID)
		}
	}()
	return check.Run(ctx, env)
}

func (s *Scheduler) notRun(job Job, cause error) Result {
	if cause == nil {
		cause = context.Canceled
	}
	status, kind := checks.Classify(cause)
	return Result{
		RunID:       uuid.NewString(),
		Name:        job.Name,
		Kind:        job.Kind,
		Labels:      job.Labels,
		Status:      status,
		FailureKind: kind,
		Message:     "not run: " + cause.Error(),
		StartedAt:   time.Now(),
		Error:       cause,
	}
}
