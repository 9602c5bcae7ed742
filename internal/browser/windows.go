package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

func (s *Session) OpenWindows(ctx context.Context, n int, url string) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := s.bctx.NewPage()
		if err != nil {
			return classify("open window", err)
		}
		if _, err := p.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		}); err != nil {
			return classify(fmt.Sprintf("open window %d", i+1), err)
		}
	}
	return nil
}

func (s *Session) WindowCount() int {
	return len(s.bctx.Pages())
}

func (s *Session) CloseOtherWindows(ctx context.Context) ([]string, error) {
	var (
		titles []string
		errs   []error
	)
	for _, p := range s.bctx.Pages() {
		if p == s.page {
			continue
		}
		if err := ctx.Err(); err != nil {
			return titles, err
		}
		title := s.windowTitle(p)
		if err := p.Close(); err != nil {
			errs = append(errs, classify("close window", err))
			continue
		}
		titles = append(titles, title)
	}
	return titles, errors.Join(errs...)
}

// windowTitle reads a tab's title for reporting. A tab whose title cannot be
// read is still closed, so the error is only logged.
func (s *Session) windowTitle(p playwright.Page) string {
	title, err := p.Title()
	if err != nil {
		s.logger.Debug("read window title failed", "url", p.URL(), "error", err)
	}
	return title
}
