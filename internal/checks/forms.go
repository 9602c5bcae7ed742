package checks

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jpalmerr/sitewait"
)

func init() {
	mustRegister(Check{Kind: "actions_copy_paste", Description: "username copied with the keyboard and pasted into the password field", Run: checkCopyPaste})
	mustRegister(Check{Kind: "login_button_style", Description: "login button colour and font", Run: checkLoginButtonStyle})
	mustRegister(Check{
		Kind:        "select_multiple",
		Description: "several options picked by index in a multiple select",
		Run:         checkSelectMultiple,
		Origin:      listboxURL,
	})
}

func checkCopyPaste(ctx context.Context, env Env) error {
	if err := env.open(ctx, "/"); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if _, err := sitewait.WaitFor(ctx, sitewait.Visible(env.Driver.Locate(selUsername)), env.Wait); err != nil {
		return fmt.Errorf("wait for login form: %w", err)
	}

	steps := []struct {
		what string
		do   func(context.Context) error
	}{
		{"focus username", func(ctx context.Context) error { return env.Driver.Click(ctx, selUsername) }},
		{"type username", func(ctx context.Context) error { return env.Driver.Fill(ctx, selUsername, env.Username) }},
		{"select username", func(ctx context.Context) error { return env.Driver.DoubleClick(ctx, selUsername) }},
		{"copy username", func(ctx context.Context) error { return env.Driver.Press(ctx, selUsername, "ControlOrMeta+c") }},
		{"focus password", func(ctx context.Context) error { return env.Driver.Click(ctx, selPassword) }},
		{"paste into password", func(ctx context.Context) error { return env.Driver.Press(ctx, selPassword, "ControlOrMeta+v") }},
	}
	for _, step := range steps {
		if err := step.do(ctx); err != nil {
			return fmt.Errorf("%s: %w", step.what, err)
		}
	}

	return eventually(ctx, env, "pasted password", env.Username, func(ctx context.Context) (string, error) {
		return env.Driver.InputValue(ctx, selPassword)
	})
}

func checkLoginButtonStyle(ctx context.Context, env Env) error {
	if err := env.open(ctx, "/"); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if _, err := sitewait.WaitFor(ctx, sitewait.Visible(env.Driver.Locate(selLoginButton)), env.Wait); err != nil {
		return fmt.Errorf("login button: %w", err)
	}

	color := env.Param("background_color", "rgba(61, 220, 145, 1)")
	err := eventually(ctx, env, "login button background-color", color, func(ctx context.Context) (string, error) {
		return env.Driver.CSSValue(ctx, selLoginButton, "background-color")
	})
	if err != nil {
		return err
	}

	font := env.Param("font", "sans-serif")
	return eventuallyMatch(ctx, env, "login button font-family", "contains "+strconv.Quote(font),
		func(v string) bool { return strings.Contains(v, font) },
		func(ctx context.Context) (string, error) {
			return env.Driver.CSSValue(ctx, selLoginButton, "font-family")
		},
	)
}

func listboxURL(env Env) string {
	return env.Param("url", DefaultListboxURL)
}

func checkSelectMultiple(ctx context.Context, env Env) error {
	if err := env.Driver.Open(ctx, listboxURL(env)); err != nil {
		return fmt.Errorf("open list box page: %w", err)
	}
	if _, err := sitewait.WaitFor(ctx, sitewait.Clickable(env.Driver.Locate(selListbox)), env.Wait); err != nil {
		return fmt.Errorf("list box: %w", err)
	}

	multiple, err := env.Driver.IsMultiple(ctx, selListbox)
	if err != nil {
		return fmt.Errorf("list box: %w", err)
	}
	if !multiple {
		return mismatch("list box allows multiple", false, true)
	}

	indexes, err := parseIndexes(env.Param("indexes", "0,1,3,5"))
	if err != nil {
		return fmt.Errorf("indexes param: %w", err)
	}
	options, err := env.Driver.LocateAll(ctx, selListbox+"/option")
	if err != nil {
		return fmt.Errorf("list box options: %w", err)
	}
	var want []string
	for _, i := range slices.Sorted(slices.Values(indexes)) {
		if i >= len(options) {
			return fmt.Errorf("index %d out of range, the list box has %d options", i, len(options))
		}
		v, err := options[i].Attribute(ctx, "value")
		if err != nil {
			return fmt.Errorf("option %d: %w", i, err)
		}
		want = append(want, v)
	}
	want = slices.Compact(want)

	if err := env.Driver.SelectIndexes(ctx, selListbox, indexes); err != nil {
		return fmt.Errorf("select indexes %v: %w", indexes, err)
	}

	return eventuallyMatch(ctx, env, "selected options", strings.Join(want, ", "),
		func(v string) bool { return v == strings.Join(want, ", ") },
		func(ctx context.Context) (string, error) {
			values, err := env.Driver.SelectedValues(ctx, selListbox)
			return strings.Join(values, ", "), err
		},
	)
}
