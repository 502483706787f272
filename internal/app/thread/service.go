// Package thread implements the thread use-cases: create, run planning,
// approve, cancel, and the degraded execution path.
//
// The service guards every transition with the policy predicates and then
// writes with a compare-and-swap on the previous status, so two callers
// racing on one thread cannot both win.
package thread

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PabloGalante/huddle/internal/app/agentflow"
	"github.com/PabloGalante/huddle/internal/app/tools"
	"github.com/PabloGalante/huddle/internal/domain"
	"github.com/PabloGalante/huddle/internal/observability"
)

type Service struct {
	store   domain.ThreadStore
	audit   domain.AuditLog
	clock   domain.Clock
	agents  *agentflow.Orchestrator
	toolbox *tools.Toolbox

	// executed holds thread ids run through ExecuteProposalWithoutThread.
	mu       sync.Mutex
	executed map[domain.ThreadID]struct{}
}

func NewService(
	store domain.ThreadStore,
	audit domain.AuditLog,
	clock domain.Clock,
	agents *agentflow.Orchestrator,
	toolbox *tools.Toolbox,
) *Service {
	return &Service{
		store:    store,
		audit:    audit,
		clock:    clock,
		agents:   agents,
		toolbox:  toolbox,
		executed: make(map[domain.ThreadID]struct{}),
	}
}

type CreateThreadInput struct {
	OwnerID      domain.UserID
	Kind         domain.ThreadKind
	Prompt       string
	Participants []domain.Participant
}

// CreateThread stores a new draft thread. Only the presence of the owner
// and a known kind are checked; prompt and participants are taken as given.
func (s *Service) CreateThread(ctx context.Context, in CreateThreadInput) (*domain.Thread, error) {
	log := observability.LoggerFromContext(ctx).With(
		"user_id", in.OwnerID,
		"kind", in.Kind,
	)

	if strings.TrimSpace(string(in.OwnerID)) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown thread kind %q", domain.ErrInvalidInput, in.Kind)
	}

	now := s.clock.Now()
	t, err := s.store.CreateThread(ctx, &domain.Thread{
		OwnerID:      in.OwnerID,
		Kind:         in.Kind,
		Status:       domain.StatusDraft,
		Prompt:       in.Prompt,
		Participants: domain.UniqueParticipants(in.Participants),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		log.Error("failed to create thread", "error", err)
		return nil, err
	}

	if err := s.logAudit(ctx, t.ID, domain.AuditCreated, in.OwnerID, nil); err != nil {
		return nil, err
	}

	log.Info("thread created", "thread_id", t.ID, "participants", len(t.Participants))
	return t, nil
}

// GetThread returns a thread visible to userID (its owner or a participant).
func (s *Service) GetThread(ctx context.Context, id domain.ThreadID, userID domain.UserID) (*domain.Thread, error) {
	t, err := s.store.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsParticipant(userID) {
		return nil, fmt.Errorf("%w: user %s is not part of thread %s", domain.ErrUnauthorized, userID, id)
	}
	return t, nil
}

func (s *Service) ListThreads(ctx context.Context, userID domain.UserID) ([]*domain.Thread, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user is required", domain.ErrInvalidInput)
	}
	return s.store.ListThreadsForUser(ctx, userID)
}

// loadOwned loads a thread and checks that userID owns it.
func (s *Service) loadOwned(ctx context.Context, id domain.ThreadID, userID domain.UserID) (*domain.Thread, error) {
	t, err := s.store.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != userID {
		return nil, fmt.Errorf("%w: only the owner may act on thread %s", domain.ErrUnauthorized, id)
	}
	return t, nil
}

// transition writes a status change guarded by the status the caller saw.
func (s *Service) transition(
	ctx context.Context,
	id domain.ThreadID,
	from, to domain.ThreadStatus,
	patch domain.ThreadPatch,
) (*domain.Thread, error) {
	now := s.clock.Now()
	patch.Status = &to
	patch.ExpectStatus = &from
	patch.UpdatedAt = &now

	t, err := s.store.UpdateThread(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("move thread %s from %s to %s: %w", id, from, to, err)
	}
	return t, nil
}

func (s *Service) logAudit(
	ctx context.Context,
	threadID domain.ThreadID,
	action domain.AuditAction,
	userID domain.UserID,
	payload map[string]any,
) error {
	err := s.audit.Log(ctx, domain.AuditEntry{
		ThreadID: threadID,
		Action:   action,
		UserID:   userID,
		Payload:  payload,
		At:       s.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("audit %s for thread %s: %w", action, threadID, err)
	}
	return nil
}

func stateConflict(t *domain.Thread, what string) error {
	return fmt.Errorf("%w: cannot %s thread %s in status %s", domain.ErrStateConflict, what, t.ID, t.Status)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
