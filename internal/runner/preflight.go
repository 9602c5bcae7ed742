package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jpalmerr/sitewait"
)

const (
	maxPreflightBody         = 64 << 10
	defaultPreflightInterval = 500 * time.Millisecond
)

// connection pooling limits; every job polls the same one or two hosts
const (
	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 4
	defaultMaxConnsPerHost     = 4
	defaultIdleConnTimeout     = 60 * time.Second
)

// preflight checks that a page answers over plain HTTP before a browser is
// launched for it. A site that is down costs one request per poll instead
// of a browser start per run.
type preflight struct {
	httpClient *http.Client
	interval   time.Duration
}

func newPreflight() *preflight {
	return &preflight{
		interval: defaultPreflightInterval,
		httpClient: &http.Client{
			// per-request deadlines come from the poll context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// reachable is a condition that is ready once url answers with a status
// below 500. Connection errors and server errors are reported as
// FailureNotFound so a wait ignoring that kind keeps trying.
func (p *preflight) reachable(url string) sitewait.Condition[int] {
	return func(ctx context.Context) (int, bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return 0, false, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return 0, false, ctx.Err()
			}
			return 0, false, sitewait.Failf(sitewait.FailureNotFound, "request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPreflightBody))

		if resp.StatusCode >= http.StatusInternalServerError {
			return resp.StatusCode, false, sitewait.Failf(sitewait.FailureNotFound, "%s answered %d", url, resp.StatusCode)
		}
		return resp.StatusCode, true, nil
	}
}

// preflightBudget is the share of a run's timeout the preflight may use.
// The rest is left for the browser, and the poll gives up before the run
// deadline so a site that stays down reads as not found, not as a timeout.
func preflightBudget(jobTimeout time.Duration) time.Duration {
	return jobTimeout / 2
}

// wait polls url until it is reachable or budget runs out.
func (p *preflight) wait(ctx context.Context, url string, budget time.Duration, logger *slog.Logger) error {
	cfg := sitewait.FluentWait(budget, p.interval, sitewait.FailureNotFound)
	cfg.Logger = logger
	out := sitewait.Poll(ctx, p.reachable(url), cfg)
	if err := out.Err(); err != nil {
		return fmt.Errorf("preflight %s: %w", url, err)
	}
	return nil
}

// Close closes idle connections. Safe to call on a nil preflight.
func (p *preflight) Close() {
	if p == nil || p.httpClient == nil {
		return
	}
	if transport, ok := p.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
