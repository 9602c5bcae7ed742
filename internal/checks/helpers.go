package checks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jpalmerr/sitewait"
)

const (
	selUsername    = "#user-name"
	selPassword    = "#password"
	selLoginButton = "#login-button"
	selTitle       = ".title"
	selSort        = "//select[@class='product_sort_container']"
	selActiveSort  = "//span[@class='active_option']"
	selItemName    = ".inventory_item_name"
	selItemPrice   = ".inventory_item_price"
	selCartBadge   = ".shopping_cart_badge"
	selErrorBanner = "//div[contains(@class,'error-message-container')]/h3"
	selErrorButton = "//button[starts-with(@class, 'error')]"
	selListbox     = "//select[@name='FromLB']"
)

func (e Env) url(path string) string {
	return strings.TrimRight(e.BaseURL, "/") + path
}

func (e Env) open(ctx context.Context, path string) error {
	return e.Driver.Open(ctx, e.url(path))
}

// eventually polls get until it returns want. A wait that runs out of time
// becomes an [AssertionError] carrying the last value seen.
func eventually(ctx context.Context, env Env, what, want string, get func(context.Context) (string, error)) error {
	match := func(v string) bool { return v == want }
	return eventuallyMatch(ctx, env, what, strconv.Quote(want), match, get)
}

func eventuallyMatch(ctx context.Context, env Env, what, want string, match func(string) bool, get func(context.Context) (string, error)) error {
	var (
		last string
		seen bool
	)
	out := sitewait.Poll(ctx, sitewait.Condition[string](func(ctx context.Context) (string, bool, error) {
		v, err := get(ctx)
		if err != nil {
			return "", false, err
		}
		last, seen = v, true
		return v, match(v), nil
	}), env.Wait)

	switch {
	case out.State == sitewait.StateSuccess:
		return nil
	case out.State == sitewait.StateTimedOut && seen:
		return mismatch(what, strconv.Quote(last), want)
	default:
		return fmt.Errorf("%s: %w", what, out.Err())
	}
}

// readText looks sel up once and returns its trimmed text.
func readText(ctx context.Context, env Env, sel string) (string, error) {
	el, err := env.Driver.Locate(sel).TryFind(ctx)
	if err != nil {
		return "", err
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// readTextEventually waits for sel to appear and returns its trimmed text.
func readTextEventually(ctx context.Context, env Env, sel string) (string, error) {
	el, err := sitewait.Find(ctx, env.Driver.Locate(sel), env.Wait)
	if err != nil {
		return "", err
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// texts reads the text of every element matching sel, retrying when the
// list is re-rendered between lookup and read.
func texts(ctx context.Context, env Env, sel string) ([]string, error) {
	out := sitewait.Poll(ctx, sitewait.Condition[[]string](func(ctx context.Context) ([]string, bool, error) {
		els, err := env.Driver.LocateAll(ctx, sel)
		if err != nil {
			return nil, false, err
		}
		if len(els) == 0 {
			return nil, false, sitewait.Failf(sitewait.FailureNotFound, "no elements match %s", sel)
		}
		vals := make([]string, 0, len(els))
		for _, el := range els {
			t, err := el.Text(ctx)
			if err != nil {
				return nil, false, err
			}
			vals = append(vals, strings.TrimSpace(t))
		}
		return vals, true, nil
	}), env.Wait)
	if err := out.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", sel, err)
	}
	return out.Value, nil
}

func attrIs(ctx context.Context, env Env, sel, name, want string) error {
	el, err := sitewait.Find(ctx, env.Driver.Locate(sel), env.Wait)
	if err != nil {
		return err
	}
	got, err := el.Attribute(ctx, name)
	if err != nil {
		return fmt.Errorf("attribute %s of %s: %w", name, sel, err)
	}
	if got != want {
		return mismatch(fmt.Sprintf("%s[%s]", sel, name), strconv.Quote(got), strconv.Quote(want))
	}
	return nil
}

func login(ctx context.Context, env Env, user, pass string) error {
	if err := env.open(ctx, "/"); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if _, err := sitewait.WaitFor(ctx, sitewait.Visible(env.Driver.Locate(selUsername)), env.Wait); err != nil {
		return fmt.Errorf("wait for login form: %w", err)
	}
	if err := env.Driver.Fill(ctx, selUsername, user); err != nil {
		return fmt.Errorf("enter username: %w", err)
	}
	if err := env.Driver.Fill(ctx, selPassword, pass); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	if err := env.Driver.Click(ctx, selLoginButton); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	return nil
}

// loginAsDefault logs in with the configured credentials and waits for the
// inventory page.
func loginAsDefault(ctx context.Context, env Env) error {
	if err := login(ctx, env, env.Username, env.Password); err != nil {
		return err
	}
	return eventually(ctx, env, "inventory title", "Products", func(ctx context.Context) (string, error) {
		return readText(ctx, env, selTitle)
	})
}

func parsePrices(raw []string) ([]float64, error) {
	prices := make([]float64, len(raw))
	for i, r := range raw {
		p, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(r), "$"), 64)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", r, err)
		}
		prices[i] = p
	}
	return prices, nil
}

// gone waits until nothing matches sel.
func gone(ctx context.Context, env Env, what, sel string) error {
	out := sitewait.Poll(ctx, sitewait.Condition[struct{}](func(ctx context.Context) (struct{}, bool, error) {
		_, err := env.Driver.Locate(sel).TryFind(ctx)
		if sitewait.KindOf(err) == sitewait.FailureNotFound {
			return struct{}{}, true, nil
		}
		return struct{}{}, false, err
	}), env.Wait)

	switch out.State {
	case sitewait.StateSuccess:
		return nil
	case sitewait.StateTimedOut:
		return mismatch(what, "still shown", "dismissed")
	default:
		return fmt.Errorf("%s: %w", what, out.Err())
	}
}

// resizeViewport applies the "viewport" param, WIDTHxHEIGHT, defaulting to
// a full HD window so nothing is hidden behind a responsive layout.
func resizeViewport(ctx context.Context, env Env) error {
	raw := env.Param("viewport", "1920x1080")
	w, h, ok := strings.Cut(raw, "x")
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if !ok || errW != nil || errH != nil {
		return fmt.Errorf("viewport param %q must look like 1920x1080", raw)
	}
	if err := env.Driver.SetViewport(ctx, width, height); err != nil {
		return fmt.Errorf("resize viewport: %w", err)
	}
	return nil
}

// parseIndexes reads a comma separated list of non-negative integers.
func parseIndexes(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("index %q must be a non-negative integer", part)
		}
		out = append(out, n)
	}
	return out, nil
}
