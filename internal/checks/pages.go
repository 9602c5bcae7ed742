package checks

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jpalmerr/sitewait"
	"github.com/jpalmerr/sitewait/internal/driver"
)

func init() {
	mustRegister(Check{Kind: "xpath_axes", Description: "parent, ancestor, descendant and following lookups on the login page", Run: checkXPathAxes})
	mustRegister(Check{Kind: "xpath_functions", Description: "contains, starts-with, and/or and text() lookups", Run: checkXPathFunctions})
	mustRegister(Check{
		Kind:        "alerts",
		Description: "alert accepted, prompt answered, confirm dismissed",
		Run:         checkAlerts,
		Origin:      func(env Env) string { return env.AlertsURL },
	})
	mustRegister(Check{Kind: "windows", Description: "open tabs then close all but the main one", Run: checkWindows})
}

func checkXPathAxes(ctx context.Context, env Env) error {
	if err := env.open(ctx, "/"); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := resizeViewport(ctx, env); err != nil {
		return err
	}

	parent := "//h4[text()='Accepted usernames are:']/parent::div"
	err := eventuallyMatch(ctx, env, "parent axis", "to list "+strconv.Quote(env.Username),
		func(text string) bool { return strings.Contains(text, env.Username) },
		func(ctx context.Context) (string, error) { return readText(ctx, env, parent) },
	)
	if err != nil {
		return err
	}

	axes := []struct {
		name, sel, class string
	}{
		{"ancestor axis", "//div[@class='form_group']/ancestor::div[1]", "login-box"},
		{"descendant axis", "//div[@class='login-box']//descendant::div[1]", "form_group"},
		{"preceding axis", "//input[@type='submit']//preceding::div[1]", "error-message-container"},
	}
	for _, ax := range axes {
		err := eventuallyMatch(ctx, env, ax.name, "class "+strconv.Quote(ax.class),
			func(class string) bool { return slices.Contains(strings.Fields(class), ax.class) },
			func(ctx context.Context) (string, error) {
				el, err := env.Driver.Locate(ax.sel).TryFind(ctx)
				if err != nil {
					return "", err
				}
				return el.Attribute(ctx, "class")
			},
		)
		if err != nil {
			return err
		}
	}

	groups, err := env.Driver.LocateAll(ctx, "//div[@class='login-box']/descendant::div[@class='form_group']")
	if err != nil {
		return fmt.Errorf("descendant axis: %w", err)
	}
	if len(groups) != 2 {
		return mismatch("form groups under login box", len(groups), 2)
	}

	// the second input after the form's first field is the login button
	if err := attrIs(ctx, env, "(//form//following::input)[2]", "id", "login-button"); err != nil {
		return fmt.Errorf("following axis: %w", err)
	}

	// an empty submit fills the error container, the second div sibling in
	// the form, and its close button dismisses the message
	if err := env.Driver.Submit(ctx, selLoginButton); err != nil {
		return fmt.Errorf("submit empty form: %w", err)
	}
	sibling := "(//form//following-sibling::div)[2]"
	err = eventuallyMatch(ctx, env, "following-sibling axis", "class \"error\"",
		func(class string) bool { return slices.Contains(strings.Fields(class), "error") },
		func(ctx context.Context) (string, error) {
			el, err := env.Driver.Locate(sibling).TryFind(ctx)
			if err != nil {
				return "", err
			}
			return el.Attribute(ctx, "class")
		},
	)
	if err != nil {
		return err
	}
	closeBtn, err := sitewait.WaitFor(ctx, sitewait.Clickable(env.Driver.Locate(sibling+"//button")), env.Wait)
	if err != nil {
		return fmt.Errorf("error close button: %w", err)
	}
	if err := closeBtn.Click(ctx); err != nil {
		return fmt.Errorf("close error: %w", err)
	}
	return gone(ctx, env, "login error", selErrorBanner)
}

func checkXPathFunctions(ctx context.Context, env Env) error {
	if err := env.open(ctx, "/"); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := resizeViewport(ctx, env); err != nil {
		return err
	}

	fields := []struct {
		name, sel, id string
	}{
		{"contains()", "//input[contains(@name, 'user')]", "user-name"},
		{"contains()", "//input[contains(@name, 'pass')]", "password"},
		{"and", "//input[@name='user-name' and @type='text']", "user-name"},
		{"or", "//input[@name='pass' or @type='password']", "password"},
		{"starts-with()", "//input[starts-with(@class, 'submit')]", "login-button"},
	}
	for _, f := range fields {
		if err := attrIs(ctx, env, f.sel, "id", f.id); err != nil {
			return fmt.Errorf("%s lookup: %w", f.name, err)
		}
	}

	// bogus credentials typed through the function lookups raise the error
	// banner, which closes through a starts-with() lookup of its button
	if err := env.Driver.Fill(ctx, fields[0].sel, "this is the username field"); err != nil {
		return fmt.Errorf("type username: %w", err)
	}
	if err := env.Driver.Fill(ctx, fields[3].sel, "this is the password field"); err != nil {
		return fmt.Errorf("type password: %w", err)
	}
	if err := env.Driver.Click(ctx, fields[4].sel); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	closeBtn, err := sitewait.WaitFor(ctx, sitewait.Clickable(env.Driver.Locate(selErrorButton)), env.Wait)
	if err != nil {
		return fmt.Errorf("error close button: %w", err)
	}
	if err := closeBtn.Click(ctx); err != nil {
		return fmt.Errorf("close error: %w", err)
	}
	if err := gone(ctx, env, "login error", selErrorBanner); err != nil {
		return err
	}

	if err := loginAsDefault(ctx, env); err != nil {
		return err
	}
	price := env.Param("price", "29.99")
	text, err := readTextEventually(ctx, env, fmt.Sprintf("//div[text()='%s']", price))
	if err != nil {
		return fmt.Errorf("text() lookup: %w", err)
	}
	currency := strings.TrimSpace(strings.Replace(text, price, "", 1))
	if want := env.Param("currency", "$"); currency != want {
		return mismatch("currency of "+price, strconv.Quote(currency), strconv.Quote(want))
	}
	return nil
}

// nextDialog waits for the page to raise a dialog.
func nextDialog(ctx context.Context, env Env, typ string) (driver.DialogEvent, error) {
	cfg := env.Wait
	cfg.Ignore = append(slices.Clone(cfg.Ignore), sitewait.FailureNoDialog)

	out := sitewait.Poll(ctx, sitewait.Condition[driver.DialogEvent](func(ctx context.Context) (driver.DialogEvent, bool, error) {
		ev, err := env.Driver.NextDialog(ctx)
		return ev, err == nil, err
	}), cfg)
	if err := out.Err(); err != nil {
		return driver.DialogEvent{}, fmt.Errorf("wait for %s: %w", typ, err)
	}
	return out.Value, nil
}

func checkAlerts(ctx context.Context, env Env) error {
	if err := env.Driver.Open(ctx, env.AlertsURL); err != nil {
		return fmt.Errorf("open alerts page: %w", err)
	}

	steps := []struct {
		link string
		typ  string
		resp driver.DialogResponse
	}{
		{"//a[@id='alert']", "alert", driver.DialogResponse{Action: driver.DialogAccept}},
		{"//a[@id='prompt']", "prompt", driver.DialogResponse{Action: driver.DialogAccept, PromptText: env.Param("prompt_text", "sitewait")}},
		{"//a[@id='confirm']", "confirm", driver.DialogResponse{Action: driver.DialogDismiss}},
	}
	for _, step := range steps {
		env.Driver.ArmDialog(step.resp)
		if err := env.Driver.Click(ctx, step.link); err != nil {
			return fmt.Errorf("open %s: %w", step.typ, err)
		}
		ev, err := nextDialog(ctx, env, step.typ)
		if err != nil {
			return err
		}
		if ev.Type != step.typ {
			return mismatch("dialog type", ev.Type, step.typ)
		}
		if ev.Action != step.resp.Action {
			return mismatch(step.typ+" answer", ev.Action, step.resp.Action)
		}
		env.logger().Debug("dialog handled", "type", ev.Type, "message", ev.Message, "action", ev.Action)
	}
	return nil
}

func checkWindows(ctx context.Context, env Env) error {
	if err := env.open(ctx, "/"); err != nil {
		return fmt.Errorf("open main window: %w", err)
	}

	n, err := strconv.Atoi(env.Param("count", "5"))
	if err != nil || n < 1 {
		return fmt.Errorf("count param %q must be a positive integer", env.Param("count", "5"))
	}
	if err := env.Driver.OpenWindows(ctx, n, env.url("/")); err != nil {
		return fmt.Errorf("open windows: %w", err)
	}
	if got := env.Driver.WindowCount(); got != n+1 {
		return mismatch("open windows", got, n+1)
	}

	closed, err := env.Driver.CloseOtherWindows(ctx)
	if err != nil {
		return fmt.Errorf("close windows: %w", err)
	}
	env.logger().Debug("closed windows", "count", len(closed))
	if got := env.Driver.WindowCount(); got != 1 {
		return mismatch("windows after close", got, 1)
	}
	return nil
}
