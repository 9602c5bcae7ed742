package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/playwright-community/playwright-go"

	"github.com/jpalmerr/sitewait"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want sitewait.FailureKind
	}{
		{"timeout", fmt.Errorf("click: %w", playwright.ErrTimeout), sitewait.FailureTimeout},
		{"target closed", playwright.ErrTargetClosed, sitewait.FailureStaleReference},
		{"detached", errors.New("Element is not attached to the DOM"), sitewait.FailureStaleReference},
		{"navigation", errors.New("Execution context was destroyed, most likely because of a navigation"), sitewait.FailureStaleReference},
		{"hidden", errors.New("element is not visible"), sitewait.FailureNotInteractable},
		{"covered", errors.New("<div class=\"overlay\"> intercepts pointer events"), sitewait.FailureNotInteractable},
		{"other", errors.New("strict mode violation"), sitewait.FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("op", tt.err)
			if got := sitewait.KindOf(err); got != tt.want {
				t.Errorf("KindOf(classify()) = %v, want %v", got, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Error("classify() dropped the original error")
			}
		})
	}
}

func TestClassify_PassesThroughContextAndNil(t *testing.T) {
	if err := classify("op", nil); err != nil {
		t.Errorf("classify(nil) = %v, want nil", err)
	}
	if err := classify("op", context.Canceled); err != context.Canceled {
		t.Errorf("classify(context.Canceled) = %v, want context.Canceled", err)
	}
}

func TestSelector(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"#user-name", "#user-name"},
		{".inventory_item_price", ".inventory_item_price"},
		{"//span[@class='active_option']", "xpath=//span[@class='active_option']"},
		{"(//button[text()='Add to cart'])[3]", "xpath=(//button[text()='Add to cart'])[3]"},
		{"./div/a", "xpath=./div/a"},
		{"xpath=//form", "xpath=//form"},
		{"  #password ", "#password"},
	}

	for _, tt := range tests {
		if got := selector(tt.in); got != tt.want {
			t.Errorf("selector(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
