package domain

import (
	"context"
	"time"
)

// ThreadStore defines thread persistence.
type ThreadStore interface {
	// CreateThread assigns an ID and stores the thread.
	CreateThread(ctx context.Context, t *Thread) (*Thread, error)
	// GetThread returns an error wrapping ErrNotFound when absent.
	GetThread(ctx context.Context, id ThreadID) (*Thread, error)
	// UpdateThread merges patch into the stored thread. When patch.ExpectStatus
	// is set and does not match, it returns ErrStateConflict and writes nothing.
	UpdateThread(ctx context.Context, id ThreadID, patch ThreadPatch) (*Thread, error)
	// ListThreadsForUser returns threads owned by or involving userID, newest first.
	ListThreadsForUser(ctx context.Context, userID UserID) ([]*Thread, error)
}

// Calendar reads and writes participant calendars.
type Calendar interface {
	GetBusySlots(ctx context.Context, userID UserID, from, to time.Time) ([]BusySlot, error)
	CreateEvent(ctx context.Context, userID UserID, ev EventRequest) error
}

// Mailer sends outgoing mail.
type Mailer interface {
	Send(ctx context.Context, mail OutgoingMail) error
}

// AuditLog records thread history.
type AuditLog interface {
	Log(ctx context.Context, entry AuditEntry) error
}

// AuditReader lists a thread's audit trail, oldest first.
type AuditReader interface {
	ListAuditEntries(ctx context.Context, threadID ThreadID) ([]AuditEntry, error)
}

type Clock interface {
	Now() time.Time
}

// Completion is a single text generation request.
type Completion struct {
	System string
	Prompt string
	// MaxChars bounds the answer; 0 means no bound.
	MaxChars int
}

// LLMClient defines how the core application asks an LLM for short texts.
type LLMClient interface {
	Complete(ctx context.Context, req Completion) (string, error)
}
