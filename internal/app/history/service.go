package history

import (
	"context"
	"fmt"

	"github.com/PabloGalante/huddle/internal/domain"
)

// Service holds the logic of reading a thread's audit trail
type Service struct {
	threads domain.ThreadStore
	reader  domain.AuditReader
}

// NewService creates a history service. reader may be nil when the audit
// backend cannot be read back; ThreadHistory then returns an empty trail.
func NewService(threads domain.ThreadStore, reader domain.AuditReader) *Service {
	return &Service{
		threads: threads,
		reader:  reader,
	}
}

// ThreadHistory returns the audit entries of a thread, oldest first, to its
// owner or one of its participants.
func (s *Service) ThreadHistory(
	ctx context.Context,
	threadID domain.ThreadID,
	userID domain.UserID,
) ([]domain.AuditEntry, error) {

	t, err := s.threads.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !t.IsParticipant(userID) {
		return nil, fmt.Errorf("%w: user %s is not part of thread %s", domain.ErrUnauthorized, userID, threadID)
	}

	if s.reader == nil {
		return []domain.AuditEntry{}, nil
	}
	return s.reader.ListAuditEntries(ctx, threadID)
}
