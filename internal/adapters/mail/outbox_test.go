package mail_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/huddle/internal/adapters/mail"
	"github.com/PabloGalante/huddle/internal/domain"
)

func TestOutboxSend(t *testing.T) {
	o := mail.NewOutbox()
	to := []string{"a@example.com"}

	require.NoError(t, o.Send(context.Background(), domain.OutgoingMail{
		To:      to,
		Subject: "Hello",
		Body:    "Body",
	}))
	to[0] = "changed@example.com"

	sent := o.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"a@example.com"}, sent[0].To)
	assert.Equal(t, "Hello", sent[0].Subject)
}

func TestOutboxRejectsEmptySubject(t *testing.T) {
	o := mail.NewOutbox()

	err := o.Send(context.Background(), domain.OutgoingMail{To: []string{"a@example.com"}})

	assert.Error(t, err)
	assert.Empty(t, o.Sent())
}
