package browser

import (
	"context"
	"errors"

	"github.com/playwright-community/playwright-go"

	"github.com/jpalmerr/sitewait"
)

// locator resolves the first element matching a selector on every lookup.
// It never waits: a miss is reported as not found so the caller's
// [sitewait.PollConfig] decides whether to try again.
type locator struct {
	page playwright.Page
	sel  string
}

func (l *locator) TryFind(ctx context.Context) (sitewait.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc := l.page.Locator(l.sel)
	n, err := loc.Count()
	if err != nil {
		return nil, classify("locate "+l.sel, err)
	}
	if n == 0 {
		return nil, sitewait.Fail(sitewait.FailureNotFound, errors.New(l.sel))
	}
	h, err := loc.First().ElementHandle()
	if err != nil {
		return nil, classify("locate "+l.sel, err)
	}
	return &element{handle: h, sel: l.sel}, nil
}

// element is bound to one DOM node. Once the node is removed its methods
// fail with [sitewait.FailureStaleReference].
type element struct {
	handle playwright.ElementHandle
	sel    string
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := e.handle.InnerText()
	return text, classify("text of "+e.sel, err)
}

func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := e.handle.GetAttribute(name)
	return v, classify("attribute "+name+" of "+e.sel, err)
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := e.handle.IsVisible()
	return ok, classify("visibility of "+e.sel, err)
}

func (e *element) Enabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := e.handle.IsEnabled()
	return ok, classify("enabled state of "+e.sel, err)
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify("click "+e.sel, e.handle.Click())
}
