package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/PabloGalante/huddle/internal/domain"
)

// ThreadStore is an in-memory implementation of domain.ThreadStore.
// Threads are copied on the way in and out so callers never share state with the store.
type ThreadStore struct {
	mu      sync.RWMutex
	threads map[domain.ThreadID]*domain.Thread
}

func NewThreadStore() *ThreadStore {
	return &ThreadStore{
		threads: make(map[domain.ThreadID]*domain.Thread),
	}
}

func (s *ThreadStore) CreateThread(ctx context.Context, t *domain.Thread) (*domain.Thread, error) {
	if t == nil {
		return nil, fmt.Errorf("create thread: thread is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneThread(t)
	if stored.ID == "" {
		stored.ID = domain.ThreadID(uuid.NewString())
	}
	if _, exists := s.threads[stored.ID]; exists {
		return nil, fmt.Errorf("create thread: thread %s already exists", stored.ID)
	}

	s.threads[stored.ID] = stored
	return cloneThread(stored), nil
}

func (s *ThreadStore) GetThread(ctx context.Context, id domain.ThreadID) (*domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.threads[id]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
	}
	return cloneThread(t), nil
}

func (s *ThreadStore) UpdateThread(ctx context.Context, id domain.ThreadID, patch domain.ThreadPatch) (*domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
	}
	if patch.ExpectStatus != nil && t.Status != *patch.ExpectStatus {
		return nil, fmt.Errorf("thread %s is %s, expected %s: %w",
			id, t.Status, *patch.ExpectStatus, domain.ErrStateConflict)
	}

	updated := cloneThread(t)
	patch.Apply(updated)
	if patch.Proposal != nil {
		updated.Proposal = cloneProposal(patch.Proposal)
	}
	s.threads[id] = updated
	return cloneThread(updated), nil
}

func (s *ThreadStore) ListThreadsForUser(ctx context.Context, userID domain.UserID) ([]*domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Thread
	for _, t := range s.threads {
		if t.IsParticipant(userID) {
			out = append(out, cloneThread(t))
		}
	}

	slices.SortFunc(out, func(a, b *domain.Thread) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func cloneThread(t *domain.Thread) *domain.Thread {
	c := *t
	c.Participants = slices.Clone(t.Participants)
	c.Proposal = cloneProposal(t.Proposal)
	if t.ExecutedAt != nil {
		at := *t.ExecutedAt
		c.ExecutedAt = &at
	}
	return &c
}

func cloneProposal(p *domain.Proposal) *domain.Proposal {
	if p == nil {
		return nil
	}
	c := *p
	if p.Schedule != nil {
		s := *p.Schedule
		s.ParticipantIDs = slices.Clone(p.Schedule.ParticipantIDs)
		c.Schedule = &s
	}
	if p.Email != nil {
		e := *p.Email
		e.Recipients = slices.Clone(p.Email.Recipients)
		c.Email = &e
	}
	return &c
}
