// Package sitewait waits for things to happen in a browser.
//
// The core is [Poll], a single configurable polling primitive. Implicit,
// explicit and fluent waits are all presets of the same [PollConfig]:
//
//	out := sitewait.Poll(ctx, sitewait.Visible(loginButton), sitewait.ExplicitWait(2*time.Second))
//	switch out.State {
//	case sitewait.StateSuccess:
//	    _ = out.Value.Click(ctx)
//	case sitewait.StateTimedOut:
//	    // the button never showed up
//	case sitewait.StateAborted:
//	    // out.Kind says why, e.g. sitewait.FailureCancelled
//	}
//
// # Conditions and failures
//
// A [Condition] reports ready, not ready, or a failure. Failures carry a
// [FailureKind]; the poller keeps going on kinds listed in [PollConfig.Ignore]
// and stops immediately on anything else. Use [Fail] to tag errors and
// [KindOf] to read the tag back.
//
// # Locators
//
// Page access is abstracted behind [Locator] and [Element]. The
// internal/browser package implements them with Playwright; tests can use
// [LocatorFunc]. [Present], [Visible], [Clickable], [TextIs], [TextContains]
// and [AttributeIs] turn a locator into a condition.
//
// # Architecture
//
// On top of the poller, sitewait runs browser smoke checks against a demo
// shop:
//
//   - internal/browser: Playwright session, locators, dialogs and windows
//   - internal/checks: the check catalogue (login, sorting, alerts, windows, XPath)
//   - internal/runner: periodic execution with a worker pool
//   - internal/store: latest results with pub/sub for live updates
//   - internal/server: JSON API, Server-Sent Events and the status page
//   - internal/monitor: wires the above together
//   - config: YAML configuration for the sitewait CLI
package sitewait
