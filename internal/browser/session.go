package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/jpalmerr/sitewait"
	"github.com/jpalmerr/sitewait/internal/driver"
)

// Engine names a Playwright browser engine.
type Engine string

const (
	Chromium Engine = "chromium"
	Firefox  Engine = "firefox"
	WebKit   Engine = "webkit"
)

const (
	defaultActionTimeout = 5 * time.Second
	defaultNavTimeout    = 30 * time.Second
)

// Options configures a browser session.
type Options struct {
	Engine   Engine
	Headless bool
	// Install downloads the Playwright driver and browsers before launching.
	Install bool

	ViewportWidth  int
	ViewportHeight int

	// ActionTimeout bounds how long a single click, fill or select waits
	// for its element to become actionable.
	ActionTimeout time.Duration
	// NavigationTimeout bounds page loads; zero means 30s.
	NavigationTimeout time.Duration

	Logger *slog.Logger
}

// Session is a Playwright browser with one context and a main page.
// It implements [driver.Driver].
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	logger  *slog.Logger

	mu      sync.Mutex
	armed   []driver.DialogResponse
	handled []driver.DialogEvent
}

var _ driver.Driver = (*Session)(nil)

// Launch starts Playwright, launches a browser and opens the main page.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = defaultActionTimeout
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = defaultNavTimeout
	}

	if opts.Install {
		if err := playwright.Install(); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	var bt playwright.BrowserType
	switch opts.Engine {
	case Firefox:
		bt = pw.Firefox
	case WebKit:
		bt = pw.WebKit
	case Chromium, "":
		bt = pw.Chromium
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("unknown browser engine %q", opts.Engine)
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", bt.Name(), err)
	}

	var ctxOpts playwright.BrowserNewContextOptions
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		ctxOpts.Viewport = &playwright.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight}
	}
	bctx, err := b.NewContext(ctxOpts)
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new browser context: %w", err)
	}
	bctx.SetDefaultTimeout(float64(opts.ActionTimeout.Milliseconds()))
	bctx.SetDefaultNavigationTimeout(float64(opts.NavigationTimeout.Milliseconds()))

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new page: %w", err)
	}

	s := &Session{
		pw:      pw,
		browser: b,
		bctx:    bctx,
		page:    page,
		logger:  opts.Logger,
	}
	page.OnDialog(s.handleDialog)

	s.logger.Debug("browser session started",
		"engine", bt.Name(),
		"headless", opts.Headless,
	)
	return s, nil
}

// Factory returns a [driver.Factory] that launches a new session per call.
func Factory(opts Options) driver.Factory {
	return func(ctx context.Context) (driver.Driver, error) {
		s, err := Launch(ctx, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Close shuts down the browser and the Playwright driver.
func (s *Session) Close() error {
	var errs []error
	if err := s.bctx.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close context: %w", err))
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Session) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return classify("open "+url, err)
}

func (s *Session) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	title, err := s.page.Title()
	return title, classify("title", err)
}

func (s *Session) CurrentURL() string {
	return s.page.URL()
}

func (s *Session) PageSource(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := s.page.Content()
	return html, classify("page source", err)
}

func (s *Session) Locate(sel string) sitewait.Locator {
	return &locator{page: s.page, sel: selector(sel)}
}

func (s *Session) LocateAll(ctx context.Context, sel string) ([]sitewait.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handles, err := s.page.Locator(selector(sel)).ElementHandles()
	if err != nil {
		return nil, classify("locate "+sel, err)
	}
	els := make([]sitewait.Element, len(handles))
	for i, h := range handles {
		els[i] = &element{handle: h, sel: sel}
	}
	return els, nil
}

func (s *Session) Fill(ctx context.Context, sel, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify("fill "+sel, s.page.Locator(selector(sel)).First().Fill(value))
}

func (s *Session) Click(ctx context.Context, sel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify("click "+sel, s.page.Locator(selector(sel)).First().Click())
}

func (s *Session) SelectOption(ctx context.Context, sel, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Locator(selector(sel)).First().SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice(value),
	})
	return classify("select "+sel, err)
}

func (s *Session) SelectIndex(ctx context.Context, sel string, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Locator(selector(sel)).First().SelectOption(playwright.SelectOptionValues{
		Indexes: &[]int{index},
	})
	return classify("select "+sel, err)
}

func (s *Session) IsMultiple(ctx context.Context, sel string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v, err := s.page.Locator(selector(sel)).First().Evaluate("el => el.multiple === true", nil)
	if err != nil {
		return false, classify("inspect "+sel, err)
	}
	multiple, _ := v.(bool)
	return multiple, nil
}

func (s *Session) InputValue(ctx context.Context, sel string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := s.page.Locator(selector(sel)).First().InputValue()
	return v, classify("value "+sel, err)
}
