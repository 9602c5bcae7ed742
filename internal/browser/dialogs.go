package browser

import (
	"context"
	"errors"

	"github.com/playwright-community/playwright-go"

	"github.com/jpalmerr/sitewait"
	"github.com/jpalmerr/sitewait/internal/driver"
)

// handleDialog answers a dialog with the oldest armed response, or
// dismisses it when nothing is armed, and records what happened.
func (s *Session) handleDialog(d playwright.Dialog) {
	resp := driver.DialogResponse{Action: driver.DialogDismiss}
	s.mu.Lock()
	if len(s.armed) > 0 {
		resp = s.armed[0]
		s.armed = s.armed[1:]
	}
	s.mu.Unlock()

	var err error
	switch {
	case resp.Action == driver.DialogAccept && resp.PromptText != "":
		err = d.Accept(resp.PromptText)
	case resp.Action == driver.DialogAccept:
		err = d.Accept()
	default:
		err = d.Dismiss()
	}
	if err != nil {
		s.logger.Warn("answer dialog failed",
			"type", d.Type(),
			"action", resp.Action,
			"error", err,
		)
	}

	ev := driver.DialogEvent{Type: d.Type(), Message: d.Message(), Action: resp.Action}
	s.mu.Lock()
	s.handled = append(s.handled, ev)
	s.mu.Unlock()
}

func (s *Session) ArmDialog(resp driver.DialogResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = append(s.armed, resp)
}

func (s *Session) NextDialog(ctx context.Context) (driver.DialogEvent, error) {
	if err := ctx.Err(); err != nil {
		return driver.DialogEvent{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.handled) == 0 {
		return driver.DialogEvent{}, sitewait.Fail(sitewait.FailureNoDialog, errors.New("no dialog shown"))
	}
	ev := s.handled[0]
	s.handled = s.handled[1:]
	return ev, nil
}
