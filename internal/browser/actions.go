package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

func (s *Session) DoubleClick(ctx context.Context, sel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify("double-click "+sel, s.page.Locator(selector(sel)).First().Dblclick())
}

func (s *Session) Press(ctx context.Context, sel, keys string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify("press "+keys+" on "+sel, s.page.Locator(selector(sel)).First().Press(keys))
}

const submitScript = `el => {
	const form = el.form || el.closest("form");
	if (!form) {
		throw new Error("element is not inside a form");
	}
	form.requestSubmit(el.type === "submit" ? el : undefined);
}`

func (s *Session) Submit(ctx context.Context, sel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Locator(selector(sel)).First().Evaluate(submitScript, nil)
	return classify("submit "+sel, err)
}

func (s *Session) SelectIndexes(ctx context.Context, sel string, indexes []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Locator(selector(sel)).First().SelectOption(playwright.SelectOptionValues{
		Indexes: &indexes,
	})
	return classify("select "+sel, err)
}

func (s *Session) SelectedValues(ctx context.Context, sel string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := s.page.Locator(selector(sel)).First().Evaluate("el => Array.from(el.selectedOptions, o => o.value)", nil)
	if err != nil {
		return nil, classify("selected options of "+sel, err)
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("selected options of %s: unexpected result %T", sel, v)
	}
	values := make([]string, 0, len(raw))
	for _, r := range raw {
		values = append(values, fmt.Sprint(r))
	}
	return values, nil
}

func (s *Session) CSSValue(ctx context.Context, sel, property string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := s.page.Locator(selector(sel)).First().Evaluate(
		"(el, prop) => getComputedStyle(el).getPropertyValue(prop)", property)
	if err != nil {
		return "", classify("css "+property+" of "+sel, err)
	}
	value, _ := v.(string)
	return normalizeColor(value), nil
}

// normalizeColor rewrites an opaque "rgb(r, g, b)" as "rgba(r, g, b, 1)".
// Browsers drop the alpha of opaque colours in computed styles, while
// WebDriver always reports colours in rgba form.
func normalizeColor(v string) string {
	inner, ok := strings.CutPrefix(v, "rgb(")
	if !ok || !strings.HasSuffix(inner, ")") {
		return v
	}
	inner = strings.TrimSuffix(inner, ")")
	if strings.Count(inner, ",") != 2 {
		return v
	}
	return "rgba(" + inner + ", 1)"
}

func (s *Session) SetViewport(ctx context.Context, width, height int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("viewport %dx%d must be positive", width, height)
	}
	return classify("set viewport", s.page.SetViewportSize(width, height))
}
