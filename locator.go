package sitewait

import (
	"context"
	"fmt"
	"strings"
)

// Element is a handle to something found on a page.
//
// Implementations report detached handles as [FailureStaleReference].
type Element interface {
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)
	Visible(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
}

// Locator finds an element on demand.
//
// TryFind must not block waiting for the element: it reports
// [FailureNotFound] when nothing matches and leaves retrying to [Poll].
type Locator interface {
	TryFind(ctx context.Context) (Element, error)
}

// LocatorFunc adapts a function to the [Locator] interface.
type LocatorFunc func(ctx context.Context) (Element, error)

// TryFind calls f.
func (f LocatorFunc) TryFind(ctx context.Context) (Element, error) {
	return f(ctx)
}

// Present is ready as soon as the locator finds an element.
func Present(loc Locator) Condition[Element] {
	return func(ctx context.Context) (Element, bool, error) {
		el, err := loc.TryFind(ctx)
		if err != nil {
			return nil, false, err
		}
		return el, true, nil
	}
}

// Visible is ready once the element exists and is displayed.
func Visible(loc Locator) Condition[Element] {
	return when(loc, func(ctx context.Context, el Element) (bool, error) {
		return el.Visible(ctx)
	})
}

// Clickable is ready once the element is displayed and enabled.
func Clickable(loc Locator) Condition[Element] {
	return when(loc, func(ctx context.Context, el Element) (bool, error) {
		visible, err := el.Visible(ctx)
		if err != nil || !visible {
			return false, err
		}
		return el.Enabled(ctx)
	})
}

// TextIs is ready once the element's text equals want.
func TextIs(loc Locator, want string) Condition[Element] {
	return when(loc, func(ctx context.Context, el Element) (bool, error) {
		got, err := el.Text(ctx)
		if err != nil {
			return false, err
		}
		return strings.TrimSpace(got) == want, nil
	})
}

// TextContains is ready once the element's text contains sub.
func TextContains(loc Locator, sub string) Condition[Element] {
	return when(loc, func(ctx context.Context, el Element) (bool, error) {
		got, err := el.Text(ctx)
		if err != nil {
			return false, err
		}
		return strings.Contains(got, sub), nil
	})
}

// AttributeIs is ready once the named attribute equals want.
func AttributeIs(loc Locator, name, want string) Condition[Element] {
	return when(loc, func(ctx context.Context, el Element) (bool, error) {
		got, err := el.Attribute(ctx, name)
		if err != nil {
			return false, err
		}
		return got == want, nil
	})
}

func when(loc Locator, check func(context.Context, Element) (bool, error)) Condition[Element] {
	return func(ctx context.Context) (Element, bool, error) {
		el, err := loc.TryFind(ctx)
		if err != nil {
			return nil, false, err
		}
		ok, err := check(ctx, el)
		if err != nil || !ok {
			return nil, false, err
		}
		return el, true, nil
	}
}

// WaitFor polls cond and returns the element it produced.
//
// WaitFor is the usual entry point for page code:
//
//	btn, err := sitewait.WaitFor(ctx, sitewait.Clickable(loc), sitewait.ExplicitWait(2*time.Second))
func WaitFor(ctx context.Context, cond Condition[Element], cfg PollConfig) (Element, error) {
	out := Poll(ctx, cond, cfg)
	if err := out.Err(); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// Find waits for the locator to produce an element, tolerating the failure
// kinds cfg ignores.
func Find(ctx context.Context, loc Locator, cfg PollConfig) (Element, error) {
	el, err := WaitFor(ctx, Present(loc), cfg)
	if err != nil {
		return nil, fmt.Errorf("find element: %w", err)
	}
	return el, nil
}
