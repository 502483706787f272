package tools

import (
	"context"
	"fmt"

	"github.com/PabloGalante/huddle/internal/domain"
)

// MailTool sends the mail of a send_email action.
type MailTool struct {
	mailer domain.Mailer
}

func NewMailTool(mailer domain.Mailer) *MailTool {
	return &MailTool{mailer: mailer}
}

func (t *MailTool) Name() domain.ActionType {
	return domain.ActionSendEmail
}

func (t *MailTool) Call(ctx context.Context, tctx ToolContext, action *domain.Action) error {
	if action.Email == nil {
		return fmt.Errorf("send_email: action for thread %s carries no mail", tctx.ThreadID)
	}
	if err := t.mailer.Send(ctx, *action.Email); err != nil {
		return fmt.Errorf("send_email: %w", err)
	}
	return nil
}
