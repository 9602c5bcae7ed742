// Package runner schedules browser check runs for sitewait.
//
// This package is internal to sitewait and handles the periodic execution of
// configured checks. It implements a worker pool pattern with a configurable
// limit on concurrently open browsers.
//
// The main components are:
//
//   - [Job]: A named check kind with its interval, timeout and wait settings
//   - [Scheduler]: Runs jobs periodically or once, with a worker pool
//   - [Result]: Outcome of one run of a job
//
// Every run gets a fresh browser session from the configured factory, and
// the session is closed when the run ends. Browser launches are throttled
// with a token bucket so a burst of due jobs does not start every browser
// at once.
//
// With [Settings.Preflight] set, a run first polls the check's start page
// over plain HTTP and only launches a browser once the site answers.
package runner
