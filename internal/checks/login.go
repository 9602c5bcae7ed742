package checks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jpalmerr/sitewait"
)

func init() {
	mustRegister(Check{Kind: "title", Description: "login page title is Swag Labs", Run: checkTitle})
	mustRegister(Check{Kind: "login_form", Description: "login form fields, placeholders and button", Run: checkLoginForm})
	mustRegister(Check{Kind: "login_valid", Description: "valid credentials reach the inventory page", Run: checkLoginValid})
	mustRegister(Check{Kind: "login_invalid", Description: "wrong password shows a mismatch error", Run: checkLoginInvalid})
	mustRegister(Check{Kind: "login_required", Description: "empty submit asks for a username", Run: checkLoginRequired})
}

func checkTitle(ctx context.Context, env Env) error {
	if err := env.open(ctx, "/"); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	want := env.Param("title", "Swag Labs")
	return eventually(ctx, env, "page title", want, env.Driver.Title)
}

func checkLoginForm(ctx context.Context, env Env) error {
	if err := env.open(ctx, "/"); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}

	fields := []struct {
		sel, attr, want string
	}{
		{selUsername, "placeholder", "Username"},
		{selUsername, "type", "text"},
		{selPassword, "placeholder", "Password"},
		{selPassword, "type", "password"},
		{selLoginButton, "value", "Login"},
	}
	for _, f := range fields {
		if err := attrIs(ctx, env, f.sel, f.attr, f.want); err != nil {
			return err
		}
	}

	if _, err := sitewait.WaitFor(ctx, sitewait.Clickable(env.Driver.Locate(selLoginButton)), env.Wait); err != nil {
		return fmt.Errorf("login button: %w", err)
	}

	// Typed text must round-trip through the field unchanged.
	if err := env.Driver.Fill(ctx, selUsername, env.Username); err != nil {
		return fmt.Errorf("enter username: %w", err)
	}
	got, err := env.Driver.InputValue(ctx, selUsername)
	if err != nil {
		return fmt.Errorf("read username: %w", err)
	}
	if got != env.Username {
		return mismatch("username field value", strconv.Quote(got), strconv.Quote(env.Username))
	}
	return nil
}

func checkLoginValid(ctx context.Context, env Env) error {
	if err := login(ctx, env, env.Username, env.Password); err != nil {
		return err
	}

	want := env.Param("landing_path", "/inventory.html")
	err := eventuallyMatch(ctx, env, "url after login", "suffix "+strconv.Quote(want),
		func(u string) bool { return strings.HasSuffix(u, want) },
		func(context.Context) (string, error) { return env.Driver.CurrentURL(), nil },
	)
	if err != nil {
		return err
	}

	return eventually(ctx, env, "inventory title", "Products", func(ctx context.Context) (string, error) {
		return readText(ctx, env, selTitle)
	})
}

func checkLoginInvalid(ctx context.Context, env Env) error {
	pass := env.Param("password", "wrong_password")
	if err := login(ctx, env, env.Username, pass); err != nil {
		return err
	}

	want := env.Param("message", "Username and password do not match")
	err := eventuallyMatch(ctx, env, "login error", "contains "+strconv.Quote(want),
		func(text string) bool { return strings.Contains(text, want) },
		func(ctx context.Context) (string, error) { return readText(ctx, env, selErrorBanner) },
	)
	if err != nil {
		return err
	}
	if u := env.Driver.CurrentURL(); strings.HasSuffix(u, "/inventory.html") {
		return mismatch("url after bad login", u, "login page")
	}
	return nil
}

func checkLoginRequired(ctx context.Context, env Env) error {
	if err := env.open(ctx, "/"); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := env.Driver.Submit(ctx, selLoginButton); err != nil {
		return fmt.Errorf("submit empty form: %w", err)
	}

	want := env.Param("message", "Epic sadface: Username is required")
	return eventually(ctx, env, "login error", want, func(ctx context.Context) (string, error) {
		return readText(ctx, env, selErrorBanner)
	})
}
