package sitewait

import (
	"errors"
	"fmt"
	"time"
)

// OutcomeState is the terminal state a poll ended in.
type OutcomeState string

const (
	// StateSuccess means the condition reported ready.
	StateSuccess OutcomeState = "success"

	// StateTimedOut means the timeout elapsed, or the attempt limit was reached,
	// without the condition becoming ready.
	StateTimedOut OutcomeState = "timed_out"

	// StateAborted means a failure outside the ignored kinds stopped the poll,
	// or the caller cancelled it.
	StateAborted OutcomeState = "aborted"
)

// String returns the string representation of the state.
func (s OutcomeState) String() string {
	return string(s)
}

// ErrTimedOut is matched by the error returned from [Outcome.Err] for a
// timed out poll.
var ErrTimedOut = errors.New("condition not met before timeout")

// Outcome is the result of [Poll].
//
// Exactly one of the three states applies:
//
//   - [StateSuccess]: Value holds what the condition returned.
//   - [StateTimedOut]: Cause holds the last ignored failure, if any.
//   - [StateAborted]: Kind and Cause hold the failure that stopped the poll.
//
// Attempts and Elapsed are filled in for every state.
type Outcome[T any] struct {
	State    OutcomeState
	Value    T
	Kind     FailureKind
	Cause    error
	Attempts int
	Elapsed  time.Duration
}

// Succeeded reports whether the poll ended in [StateSuccess].
func (o Outcome[T]) Succeeded() bool {
	return o.State == StateSuccess
}

// Err converts a non-successful outcome into an error.
//
// Success yields nil. A timed out poll yields a [*TimeoutError] that matches
// [ErrTimedOut] with errors.Is. An aborted poll yields a [*Failure] carrying
// the aborting kind.
func (o Outcome[T]) Err() error {
	switch o.State {
	case StateSuccess:
		return nil
	case StateTimedOut:
		return &TimeoutError{Elapsed: o.Elapsed, Attempts: o.Attempts, Last: o.Cause}
	default:
		var f *Failure
		if errors.As(o.Cause, &f) && f.Kind == o.Kind {
			return o.Cause
		}
		return &Failure{Kind: o.Kind, Err: o.Cause}
	}
}

// TimeoutError describes a poll that ran out of time.
type TimeoutError struct {
	Elapsed  time.Duration
	Attempts int
	// Last is the most recent ignored failure; nil if every attempt simply
	// reported not ready.
	Last error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%v after %s (%d attempts)", ErrTimedOut, e.Elapsed.Round(time.Millisecond), e.Attempts)
	if e.Last != nil {
		msg += fmt.Sprintf(": last failure: %v", e.Last)
	}
	return msg
}

// Is reports whether target is [ErrTimedOut].
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimedOut
}

func (e *TimeoutError) Unwrap() error {
	return e.Last
}
