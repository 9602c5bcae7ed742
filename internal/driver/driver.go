// Package driver defines the browser operations checks depend on.
//
// The browser package implements [Driver] with Playwright. Keeping the
// interface here lets checks be tested against an in-memory fake without
// launching a browser.
package driver

import (
	"context"

	"github.com/jpalmerr/sitewait"
)

// DialogAction is how an armed response answers a dialog.
type DialogAction string

const (
	DialogAccept  DialogAction = "accept"
	DialogDismiss DialogAction = "dismiss"
)

// DialogResponse answers the next alert, confirm or prompt dialog.
type DialogResponse struct {
	Action DialogAction
	// PromptText is typed into a prompt before accepting it.
	PromptText string
}

// DialogEvent records a dialog that was shown and how it was answered.
type DialogEvent struct {
	Type    string // "alert", "confirm", "prompt" or "beforeunload"
	Message string
	Action  DialogAction
}

// Driver is an open browser session.
//
// Selectors are CSS selectors or XPath expressions; XPath is recognised by a
// leading "/", "(" or "./" or an explicit "xpath=" prefix. Methods that act
// on a selector wait up to the session's action timeout for it to become
// actionable; use [Driver.Locate] with [sitewait.Poll] for finer control.
type Driver interface {
	Open(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	CurrentURL() string
	PageSource(ctx context.Context) (string, error)

	// Locate returns a locator for the first element matching selector.
	Locate(selector string) sitewait.Locator
	// LocateAll returns every element currently matching selector.
	LocateAll(ctx context.Context, selector string) ([]sitewait.Element, error)

	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	DoubleClick(ctx context.Context, selector string) error
	// Press sends a key or chord such as "Tab" or "ControlOrMeta+c" to the
	// element. ControlOrMeta is Meta on macOS and Control elsewhere.
	Press(ctx context.Context, selector, keys string) error
	// Submit submits the form that owns the element, as if its submit
	// button had been pressed.
	Submit(ctx context.Context, selector string) error

	SelectOption(ctx context.Context, selector, value string) error
	SelectIndex(ctx context.Context, selector string, index int) error
	// SelectIndexes selects every listed option of a multiple select,
	// replacing the current selection.
	SelectIndexes(ctx context.Context, selector string, indexes []int) error
	// SelectedValues returns the values of the selected options in
	// document order.
	SelectedValues(ctx context.Context, selector string) ([]string, error)
	// IsMultiple reports whether the select element allows multiple choices.
	IsMultiple(ctx context.Context, selector string) (bool, error)
	// InputValue returns the current value of an input element.
	InputValue(ctx context.Context, selector string) (string, error)
	// CSSValue returns the computed value of a CSS property, for example
	// "rgba(61, 220, 145, 1)" for background-color.
	CSSValue(ctx context.Context, selector, property string) (string, error)

	// SetViewport resizes the page.
	SetViewport(ctx context.Context, width, height int) error

	// ArmDialog queues a response for the next dialog. Dialogs that arrive
	// with nothing armed are dismissed.
	ArmDialog(resp DialogResponse)
	// NextDialog pops the oldest handled dialog, or fails with
	// [sitewait.FailureNoDialog] when none has been shown yet.
	NextDialog(ctx context.Context) (DialogEvent, error)

	// OpenWindows opens n extra tabs, each navigated to url.
	OpenWindows(ctx context.Context, n int, url string) error
	WindowCount() int
	// CloseOtherWindows closes every tab except the main one and returns
	// the titles of the closed tabs.
	CloseOtherWindows(ctx context.Context) ([]string, error)

	Close() error
}

// Factory opens a new session. Every check run gets its own session.
type Factory func(ctx context.Context) (Driver, error)
