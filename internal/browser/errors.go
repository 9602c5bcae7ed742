package browser

import (
	"context"
	"errors"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/jpalmerr/sitewait"
)

var staleMarkers = []string{
	"not attached to the dom",
	"element is detached",
	"execution context was destroyed",
	"frame was detached",
}

var interactableMarkers = []string{
	"element is not visible",
	"element is not enabled",
	"element is not editable",
	"intercepts pointer events",
	"outside of the viewport",
	"not an <input>",
	"element is not a <select>",
}

// classify wraps a Playwright error in a [sitewait.Failure] so callers can
// decide which failures a wait should ride out.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	kind := sitewait.FailureUnknown
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, playwright.ErrTimeout):
		kind = sitewait.FailureTimeout
	case errors.Is(err, playwright.ErrTargetClosed):
		kind = sitewait.FailureStaleReference
	case containsAny(msg, staleMarkers):
		kind = sitewait.FailureStaleReference
	case containsAny(msg, interactableMarkers):
		kind = sitewait.FailureNotInteractable
	}
	return sitewait.Failf(kind, "%s: %w", op, err)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// selector turns the XPath forms used by check definitions into Playwright
// selector syntax. CSS selectors pass through unchanged.
func selector(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "xpath="), strings.HasPrefix(s, "css="):
		return s
	case strings.HasPrefix(s, "/"), strings.HasPrefix(s, "("), strings.HasPrefix(s, "./"):
		return "xpath=" + s
	}
	return s
}
