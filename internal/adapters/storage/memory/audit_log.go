package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/PabloGalante/huddle/internal/domain"
)

// AuditLog is a simple in-memory implementation of domain.AuditLog and
// domain.AuditReader. It is NOT persistent and is only suitable for
// development / local mode.
type AuditLog struct {
	mu       sync.RWMutex
	byThread map[domain.ThreadID][]domain.AuditEntry
}

func NewAuditLog() *AuditLog {
	return &AuditLog{
		byThread: make(map[domain.ThreadID][]domain.AuditEntry),
	}
}

func (l *AuditLog) Log(ctx context.Context, entry domain.AuditEntry) error {
	entry.Payload = maps.Clone(entry.Payload)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.byThread[entry.ThreadID] = append(l.byThread[entry.ThreadID], entry)
	return nil
}

// ListAuditEntries returns the thread's entries in the order they were logged.
func (l *AuditLog) ListAuditEntries(ctx context.Context, threadID domain.ThreadID) ([]domain.AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.byThread[threadID]
	if len(entries) == 0 {
		return []domain.AuditEntry{}, nil
	}
	return slices.Clone(entries), nil
}
