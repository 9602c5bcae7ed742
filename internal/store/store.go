package store

import "time"

// CheckResult is the latest outcome of a check in storage.
//
// CheckResult is the storage representation of a check run, optimized for
// JSON serialization (used by the REST API and SSE). It is decoupled from
// the runner's internal types to allow independent evolution.
type CheckResult struct {
	// RunID identifies the run that produced this result.
	RunID string `json:"run_id"`

	// Name is the job's display name.
	Name string `json:"name"`

	// Kind is the check kind that was run.
	Kind string `json:"kind"`

	// Status is "pass", "fail" or "error".
	Status string `json:"status"`

	// FailureKind is the wait failure that ended the run, empty on success.
	FailureKind string `json:"failure_kind,omitempty"`

	// Labels contains key-value metadata for grouping and filtering.
	Labels map[string]string `json:"labels"`

	// DurationMs is how long the run took in milliseconds.
	DurationMs int64 `json:"duration_ms"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Error contains the failure message. nil means the check passed.
	Error *string `json:"error"`
}

// Store defines the interface for storing and subscribing to check results.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows real-time updates to be pushed to connected clients
// (e.g., via Server-Sent Events).
type Store interface {
	// Update stores a new result and notifies all subscribers.
	// The result is keyed by Name, so subsequent updates replace the latest
	// value and push the previous one into history.
	Update(result CheckResult)

	// GetAll returns the latest result of every check, sorted by name.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []CheckResult

	// History returns the recent results of one check, newest first.
	// The second return value is false when the check has never run.
	History(name string) ([]CheckResult, bool)

	// Subscribe returns a channel that receives result updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan CheckResult

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan CheckResult)
}
