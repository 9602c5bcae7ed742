package checks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jpalmerr/sitewait"
)

func testEnv(site *fakeSite) Env {
	return Env{
		Driver:    site,
		BaseURL:   fakeBase,
		AlertsURL: "http://alerts.test/alerts.html",
		Username:  DefaultUsername,
		Password:  DefaultPassword,
		Wait: sitewait.PollConfig{
			Timeout:      200 * time.Millisecond,
			PollInterval: time.Millisecond,
			Ignore:       []sitewait.FailureKind{sitewait.FailureNotFound, sitewait.FailureStaleReference},
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func runKind(t *testing.T, kind string, env Env) error {
	t.Helper()
	c, ok := Lookup(kind)
	if !ok {
		t.Fatalf("Lookup(%q) not registered", kind)
	}
	return c.Run(context.Background(), env)
}

func TestRegistry_AllKinds(t *testing.T) {
	want := []string{
		"actions_copy_paste", "add_to_cart", "alerts", "login_button_style", "login_form",
		"login_invalid", "login_required", "login_valid", "select_multiple", "sort_hilo",
		"sort_lohi", "sort_za", "title", "windows", "xpath_axes", "xpath_functions",
	}

	all := All()
	if len(all) != len(want) {
		t.Fatalf("All() returned %d checks, want %d", len(all), len(want))
	}
	for i, c := range all {
		if c.Kind != want[i] {
			t.Errorf("All()[%d].Kind = %q, want %q", i, c.Kind, want[i])
		}
		if c.Description == "" {
			t.Errorf("check %q has no description", c.Kind)
		}
	}
}

func TestRegister_Rejects(t *testing.T) {
	noop := func(context.Context, Env) error { return nil }

	tests := []struct {
		name  string
		check Check
	}{
		{"empty kind", Check{Run: noop}},
		{"nil run", Check{Kind: "nil_run"}},
		{"duplicate", Check{Kind: "title", Run: noop}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Register(tt.check); err == nil {
				t.Error("Register() error = nil, want error")
			}
		})
	}
}

func TestChecks_PassAgainstHealthySite(t *testing.T) {
	for _, c := range All() {
		t.Run(c.Kind, func(t *testing.T) {
			site := newFakeSite()
			if err := c.Run(context.Background(), testEnv(site)); err != nil {
				t.Errorf("%s: %v", c.Kind, err)
			}
		})
	}
}

func TestLoginValid_WaitsForRedirect(t *testing.T) {
	site := newFakeSite()
	site.urlLag = 5

	if err := runKind(t, "login_valid", testEnv(site)); err != nil {
		t.Fatalf("login_valid error = %v", err)
	}
}

func TestLoginValid_WrongCredentialsFail(t *testing.T) {
	env := testEnv(newFakeSite())
	env.Password = "nope"

	err := runKind(t, "login_valid", env)
	status, _ := Classify(err)
	if status != StatusFail {
		t.Fatalf("status = %v (%v), want fail", status, err)
	}
	var ae *AssertionError
	if !errors.As(err, &ae) || ae.What != "url after login" {
		t.Errorf("err = %v, want url assertion", err)
	}
}

func TestTitle_Mismatch(t *testing.T) {
	site := newFakeSite()
	site.title = "Swag Labs Staging"

	err := runKind(t, "title", testEnv(site))
	var ae *AssertionError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *AssertionError", err)
	}
	if ae.Got != `"Swag Labs Staging"` {
		t.Errorf("Got = %v", ae.Got)
	}
}

func TestTitle_ParamOverride(t *testing.T) {
	site := newFakeSite()
	site.title = "Swag Labs Staging"
	env := testEnv(site)
	env.Params = map[string]string{"title": "Swag Labs Staging"}

	if err := runKind(t, "title", env); err != nil {
		t.Errorf("title error = %v", err)
	}
}

func TestSortHilo_UnsortedListFails(t *testing.T) {
	site := newFakeSite()
	site.ignoreSort = true

	err := runKind(t, "sort_hilo", testEnv(site))
	status, _ := Classify(err)
	if status != StatusFail {
		t.Errorf("status = %v (%v), want fail", status, err)
	}
}

func TestSortLohi_RetriesStaleList(t *testing.T) {
	site := newFakeSite()
	site.staleReads = 2

	if err := runKind(t, "sort_lohi", testEnv(site)); err != nil {
		t.Fatalf("sort_lohi error = %v", err)
	}
}

func TestSortLohi_StaleNotIgnoredIsError(t *testing.T) {
	site := newFakeSite()
	site.staleReads = 1
	env := testEnv(site)
	env.Wait = sitewait.ImplicitWait(200 * time.Millisecond)
	env.Wait.PollInterval = time.Millisecond

	err := runKind(t, "sort_lohi", env)
	status, kind := Classify(err)
	if status != StatusError || kind != sitewait.FailureStaleReference {
		t.Errorf("Classify() = %v/%v (%v), want error/stale_reference", status, kind, err)
	}
}

func TestAddToCart_Position(t *testing.T) {
	site := newFakeSite()
	env := testEnv(site)
	env.Params = map[string]string{"position": "1", "item": "Sauce Labs Backpack"}

	if err := runKind(t, "add_to_cart", env); err != nil {
		t.Fatalf("add_to_cart error = %v", err)
	}
	if len(site.cart) != 1 || site.cart[0] != "Sauce Labs Backpack" {
		t.Errorf("cart = %v", site.cart)
	}
}

func TestAddToCart_BadPosition(t *testing.T) {
	env := testEnv(newFakeSite())
	env.Params = map[string]string{"position": "zero"}

	if err := runKind(t, "add_to_cart", env); err == nil {
		t.Error("add_to_cart error = nil, want param error")
	}
}

func TestAlerts_NoDialogTimesOut(t *testing.T) {
	site := newFakeSite()
	site.silentDialogs = true

	err := runKind(t, "alerts", testEnv(site))
	status, kind := Classify(err)
	if status != StatusFail || kind != sitewait.FailureNoDialog {
		t.Errorf("Classify() = %v/%v (%v), want fail/no_dialog", status, kind, err)
	}
}

func TestAlerts_AnswersInOrder(t *testing.T) {
	site := newFakeSite()
	if err := runKind(t, "alerts", testEnv(site)); err != nil {
		t.Fatalf("alerts error = %v", err)
	}
	if len(site.armed) != 0 {
		t.Errorf("%d armed responses left unused", len(site.armed))
	}
}

func TestWindows_Count(t *testing.T) {
	site := newFakeSite()
	env := testEnv(site)
	env.Params = map[string]string{"count": "3"}

	if err := runKind(t, "windows", env); err != nil {
		t.Fatalf("windows error = %v", err)
	}
	if site.WindowCount() != 1 {
		t.Errorf("WindowCount() = %d, want 1", site.WindowCount())
	}
}

func TestLoginRequired_SubmitsEmptyForm(t *testing.T) {
	site := newFakeSite()
	if err := runKind(t, "login_required", testEnv(site)); err != nil {
		t.Fatalf("login_required error = %v", err)
	}
	if site.banner != "Epic sadface: Username is required" {
		t.Errorf("banner = %q", site.banner)
	}
}

func TestCopyPaste_FillsPasswordFromClipboard(t *testing.T) {
	site := newFakeSite()
	if err := runKind(t, "actions_copy_paste", testEnv(site)); err != nil {
		t.Fatalf("actions_copy_paste error = %v", err)
	}
	if site.pass != DefaultUsername {
		t.Errorf("password = %q, want %q", site.pass, DefaultUsername)
	}
}

func TestCopyPaste_NothingSelectedFails(t *testing.T) {
	site := newFakeSite()
	site.stiffSelect = true

	err := runKind(t, "actions_copy_paste", testEnv(site))
	if status, _ := Classify(err); status != StatusFail {
		t.Errorf("Classify() = %v (%v), want fail", status, err)
	}
}

func TestLoginButtonStyle(t *testing.T) {
	tests := []struct {
		name   string
		styles map[string]string
		params map[string]string
		want   Status
	}{
		{"live store", nil, nil, StatusPass},
		{"wrong colour", map[string]string{"background-color": "rgba(226, 35, 26, 1)"}, nil, StatusFail},
		{"serif font", map[string]string{"font-family": "Georgia, serif"}, nil, StatusFail},
		{"font param", map[string]string{"font-family": "Georgia, serif"}, map[string]string{"font": "Georgia"}, StatusPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := newFakeSite()
			for k, v := range tt.styles {
				site.styles[k] = v
			}
			env := testEnv(site)
			env.Params = tt.params

			err := runKind(t, "login_button_style", env)
			if status, _ := Classify(err); status != tt.want {
				t.Errorf("Classify() = %v (%v), want %v", status, err, tt.want)
			}
		})
	}
}

func TestSelectMultiple_ReadsBackSelection(t *testing.T) {
	site := newFakeSite()
	env := testEnv(site)
	env.Params = map[string]string{"indexes": "4, 2", "url": "http://shop.test/multiselect.html"}

	if err := runKind(t, "select_multiple", env); err != nil {
		t.Fatalf("select_multiple error = %v", err)
	}
	got, _ := site.SelectedValues(context.Background(), selListbox)
	if len(got) != 2 || got[0] != "Japan" || got[1] != "India" {
		t.Errorf("SelectedValues() = %v, want [Japan India]", got)
	}
}

func TestSelectMultiple_Failures(t *testing.T) {
	tests := []struct {
		name    string
		single  bool
		indexes string
		want    Status
	}{
		{"single choice select", true, "", StatusFail},
		{"bad index list", false, "0,x", StatusError},
		{"index out of range", false, "0,8", StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := newFakeSite()
			site.singleListbox = tt.single
			env := testEnv(site)
			env.Params = map[string]string{"indexes": tt.indexes}

			err := runKind(t, "select_multiple", env)
			if status, _ := Classify(err); status != tt.want {
				t.Errorf("Classify() = %v (%v), want %v", status, err, tt.want)
			}
		})
	}
}

func TestSelectMultiple_StartsOnListboxPage(t *testing.T) {
	c, _ := Lookup("select_multiple")
	env := testEnv(newFakeSite())
	if got := c.StartURL(env); got != DefaultListboxURL {
		t.Errorf("StartURL() = %q, want %q", got, DefaultListboxURL)
	}
	env.Params = map[string]string{"url": "http://localhost:9999/multiselect.html"}
	if got := c.StartURL(env); got != "http://localhost:9999/multiselect.html" {
		t.Errorf("StartURL() = %q, want the url param", got)
	}
}

func TestXPathAxes_ClosesErrorBanner(t *testing.T) {
	site := newFakeSite()
	if err := runKind(t, "xpath_axes", testEnv(site)); err != nil {
		t.Fatalf("xpath_axes error = %v", err)
	}
	if site.banner != "" {
		t.Errorf("banner = %q, want it dismissed", site.banner)
	}
	if site.viewport != [2]int{1920, 1080} {
		t.Errorf("viewport = %v, want 1920x1080", site.viewport)
	}
}

func TestXPathAxes_BadViewport(t *testing.T) {
	env := testEnv(newFakeSite())
	env.Params = map[string]string{"viewport": "wide"}

	err := runKind(t, "xpath_axes", env)
	if status, _ := Classify(err); status != StatusError {
		t.Errorf("Classify() = %v (%v), want error", status, err)
	}
}

func TestXPathFunctions_Currency(t *testing.T) {
	site := newFakeSite()
	env := testEnv(site)
	env.Params = map[string]string{"viewport": "1280x800"}
	if err := runKind(t, "xpath_functions", env); err != nil {
		t.Fatalf("xpath_functions error = %v", err)
	}
	if site.viewport != [2]int{1280, 800} {
		t.Errorf("viewport = %v, want 1280x800", site.viewport)
	}

	env.Params = map[string]string{"currency": "€"}
	err := runKind(t, "xpath_functions", env)
	if status, _ := Classify(err); status != StatusFail {
		t.Errorf("Classify() = %v (%v), want fail", status, err)
	}
}

func TestCheck_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := Lookup("title")
	err := c.Run(ctx, testEnv(newFakeSite()))
	status, kind := Classify(err)
	if status != StatusError || kind != sitewait.FailureCancelled {
		t.Errorf("Classify() = %v/%v (%v), want error/cancelled", status, kind, err)
	}
}

func TestClassify(t *testing.T) {
	timedOut := sitewait.Outcome[int]{
		State: sitewait.StateTimedOut,
		Cause: sitewait.Fail(sitewait.FailureNotFound, errors.New("#cart")),
	}.Err()
	bareTimeout := sitewait.Outcome[int]{State: sitewait.StateTimedOut}.Err()

	tests := []struct {
		name       string
		err        error
		wantStatus Status
		wantKind   sitewait.FailureKind
	}{
		{"nil", nil, StatusPass, ""},
		{"assertion", mismatch("title", "a", "b"), StatusFail, ""},
		{"wrapped assertion", fmt.Errorf("step: %w", mismatch("x", 1, 2)), StatusFail, ""},
		{"timeout with last failure", fmt.Errorf("wait: %w", timedOut), StatusFail, sitewait.FailureNotFound},
		{"timeout without failure", bareTimeout, StatusFail, sitewait.FailureTimeout},
		{"not interactable", sitewait.Fail(sitewait.FailureNotInteractable, nil), StatusError, sitewait.FailureNotInteractable},
		{"cancelled", context.Canceled, StatusError, sitewait.FailureCancelled},
		{"plain", errors.New("browser crashed"), StatusError, sitewait.FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, kind := Classify(tt.err)
			if status != tt.wantStatus || kind != tt.wantKind {
				t.Errorf("Classify() = %v/%q, want %v/%q", status, kind, tt.wantStatus, tt.wantKind)
			}
		})
	}
}
