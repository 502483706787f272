package tools

import (
	"context"
	"fmt"

	"github.com/PabloGalante/huddle/internal/domain"
)

// CalendarTool creates the event of a create_event action in the
// organizer's calendar.
type CalendarTool struct {
	calendar domain.Calendar
}

func NewCalendarTool(calendar domain.Calendar) *CalendarTool {
	return &CalendarTool{calendar: calendar}
}

func (t *CalendarTool) Name() domain.ActionType {
	return domain.ActionCreateEvent
}

func (t *CalendarTool) Call(ctx context.Context, tctx ToolContext, action *domain.Action) error {
	if action.Event == nil {
		return fmt.Errorf("create_event: action for thread %s carries no event", tctx.ThreadID)
	}

	organizer := action.OrganizerID
	if organizer == "" {
		organizer = tctx.UserID
	}
	if err := t.calendar.CreateEvent(ctx, organizer, *action.Event); err != nil {
		return fmt.Errorf("create_event: %w", err)
	}
	return nil
}
