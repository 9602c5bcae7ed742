package monitor

import (
	"time"

	"github.com/jpalmerr/sitewait/internal/checks"
	"github.com/jpalmerr/sitewait/internal/runner"
)

// Report summarises a single pass over every job.
type Report struct {
	// Results are in job order.
	Results []runner.Result

	Passed  int
	Failed  int
	Errored int

	Duration time.Duration
}

func newReport(results []runner.Result, elapsed time.Duration) Report {
	r := Report{Results: results, Duration: elapsed}
	for _, res := range results {
		switch res.Status {
		case checks.StatusPass:
			r.Passed++
		case checks.StatusFail:
			r.Failed++
		default:
			r.Errored++
		}
	}
	return r
}

// OK reports whether every check passed.
func (r Report) OK() bool {
	return r.Failed == 0 && r.Errored == 0
}
