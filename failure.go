package sitewait

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FailureKind classifies why a condition could not report readiness.
//
// FailureKind is a string type so it reads well in logs, JSON and YAML
// configuration. A poll tolerates the kinds listed in [PollConfig.Ignore]
// and aborts on every other kind.
type FailureKind string

const (
	// FailureNotFound indicates the awaited element or resource does not exist yet.
	FailureNotFound FailureKind = "not_found"

	// FailureStaleReference indicates a previously found element was detached
	// from the page between lookup and use.
	FailureStaleReference FailureKind = "stale_reference"

	// FailureNotInteractable indicates the element exists but cannot receive
	// input (hidden, disabled or covered by another element).
	FailureNotInteractable FailureKind = "not_interactable"

	// FailureNoDialog indicates no alert, confirm or prompt dialog is open.
	FailureNoDialog FailureKind = "no_dialog"

	// FailureTimeout indicates the underlying automation call timed out.
	FailureTimeout FailureKind = "timeout"

	// FailureCancelled indicates the caller cancelled the poll.
	FailureCancelled FailureKind = "cancelled"

	// FailureUnknown is assigned to errors that carry no kind.
	FailureUnknown FailureKind = "unknown"
)

var knownKinds = []FailureKind{
	FailureNotFound,
	FailureStaleReference,
	FailureNotInteractable,
	FailureNoDialog,
	FailureTimeout,
	FailureCancelled,
	FailureUnknown,
}

// String returns the string representation of the kind.
func (k FailureKind) String() string {
	return string(k)
}

// ParseFailureKind converts a configuration string such as "not_found" or
// "stale-reference" into a [FailureKind].
func ParseFailureKind(s string) (FailureKind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, k := range knownKinds {
		if string(k) == normalized {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown failure kind %q", s)
}

// Failure is an error tagged with a [FailureKind].
//
// Locators and conditions return a *Failure to tell the poller whether the
// problem is transient. Use [Fail] or [Failf] to build one and [KindOf] to
// read the kind back from a wrapped error chain.
type Failure struct {
	Kind FailureKind
	Err  error
}

// Fail wraps err with the given kind. A nil err yields a Failure whose
// message is the kind itself.
func Fail(kind FailureKind, err error) error {
	return &Failure{Kind: kind, Err: err}
}

// Failf builds a Failure from a format string.
func Failf(kind FailureKind, format string, args ...any) error {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf reports the [FailureKind] carried by err.
//
// The outermost *Failure in the chain wins. Bare context errors map to
// [FailureCancelled] and [FailureTimeout]; anything else is [FailureUnknown].
// KindOf returns the empty kind for a nil error.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	switch {
	case errors.Is(err, context.Canceled):
		return FailureCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	}
	return FailureUnknown
}
