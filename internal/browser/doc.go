// Package browser drives a real browser through Playwright.
//
// A [Session] owns one Playwright process, one browser, one browser context
// and a main page. It implements driver.Driver, so checks can run against it
// unchanged. Element lookups through [Session.Locate] never block; they
// report sitewait.FailureNotFound on a miss and leave retrying to
// sitewait.Poll.
//
// Playwright errors are translated to sitewait failure kinds:
//
//   - detached nodes and closed pages: stale_reference
//   - hidden, disabled or covered elements: not_interactable
//   - Playwright action timeouts: timeout
//
// Anything else is reported as unknown.
package browser
