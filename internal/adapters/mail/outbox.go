package mail

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/PabloGalante/huddle/internal/domain"
	"github.com/PabloGalante/huddle/internal/observability"
)

// Outbox is a domain.Mailer that keeps sent mail in memory and logs it.
// Nothing leaves the process.
type Outbox struct {
	mu   sync.RWMutex
	sent []domain.OutgoingMail
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Send(ctx context.Context, m domain.OutgoingMail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Subject == "" {
		return fmt.Errorf("send mail: subject is empty")
	}

	o.mu.Lock()
	o.sent = append(o.sent, domain.OutgoingMail{
		To:      slices.Clone(m.To),
		Subject: m.Subject,
		Body:    m.Body,
	})
	o.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("mail queued in outbox",
		"to", m.To,
		"subject", m.Subject,
		"body_len", len(m.Body),
	)
	return nil
}

// Sent returns every mail sent so far, oldest first.
func (o *Outbox) Sent() []domain.OutgoingMail {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return slices.Clone(o.sent)
}
