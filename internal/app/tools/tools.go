package tools

import (
	"context"
	"fmt"

	"github.com/PabloGalante/huddle/internal/domain"
)

// ToolContext brings metadata of the call to the tool
type ToolContext struct {
	ThreadID  domain.ThreadID
	UserID    domain.UserID
	RequestID string
}

// Tool performs one kind of side effect.
type Tool interface {
	Name() domain.ActionType
	Call(ctx context.Context, tctx ToolContext, action *domain.Action) error
}

// Toolbox routes an action to the tool registered for its type.
type Toolbox struct {
	tools map[domain.ActionType]Tool
}

func NewToolbox(tools ...Tool) *Toolbox {
	tb := &Toolbox{tools: make(map[domain.ActionType]Tool, len(tools))}
	for _, t := range tools {
		tb.tools[t.Name()] = t
	}
	return tb
}

// NewDefaultToolbox wires the mail and calendar tools.
func NewDefaultToolbox(mailer domain.Mailer, calendar domain.Calendar) *Toolbox {
	return NewToolbox(NewMailTool(mailer), NewCalendarTool(calendar))
}

// Dispatch runs action exactly once. Failures are returned as is, no retry.
func (tb *Toolbox) Dispatch(ctx context.Context, tctx ToolContext, action *domain.Action) error {
	if action == nil {
		return fmt.Errorf("dispatch: nil action")
	}
	t, ok := tb.tools[action.Type]
	if !ok {
		return fmt.Errorf("dispatch: no tool for action %q", action.Type)
	}
	return t.Call(ctx, tctx, action)
}
