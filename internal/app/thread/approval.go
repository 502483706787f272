package thread

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/huddle/internal/app/policy"
	"github.com/PabloGalante/huddle/internal/app/tools"
	"github.com/PabloGalante/huddle/internal/domain"
	"github.com/PabloGalante/huddle/internal/observability"
)

// ApproveAction approves a proposed thread on behalf of its owner and
// executes the derived action.
//
// A dispatch failure leaves the thread approved. Nothing is rolled back or
// retried: the side effect may have partly happened.
func (s *Service) ApproveAction(ctx context.Context, id domain.ThreadID, userID domain.UserID) (*domain.Thread, error) {
	log := observability.LoggerFromContext(ctx).With("thread_id", id, "user_id", userID)

	t, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !policy.CanApprove(t) {
		return nil, stateConflict(t, "approve")
	}

	candidate := *t
	candidate.Status = domain.StatusApproved
	action := policy.ActionFromThread(&candidate)
	if action == nil {
		return nil, fmt.Errorf("no action derived from proposal of thread %s", id)
	}
	if err := policy.ValidateAction(action); err != nil {
		log.Warn("proposal cannot be executed, thread stays proposed", "action", action.Type, "error", err)
		return nil, err
	}

	if _, err := s.transition(ctx, id, domain.StatusProposed, domain.StatusApproved, domain.ThreadPatch{}); err != nil {
		return nil, err
	}
	log.Info("thread approved", "action", action.Type)

	if err := s.toolbox.Dispatch(ctx, toolContext(ctx, id, userID), action); err != nil {
		log.Error("action failed, thread stays approved", "action", action.Type, "error", err)
		return nil, fmt.Errorf("execute %s for thread %s: %w", action.Type, id, err)
	}

	executedAt := s.clock.Now()
	done, err := s.transition(ctx, id, domain.StatusApproved, domain.StatusDone, domain.ThreadPatch{
		ExecutedAt: &executedAt,
	})
	if err != nil {
		log.Error("action ran but thread could not be marked done", "error", err)
		return nil, err
	}

	if err := s.logAudit(ctx, id, domain.AuditExecuted, userID, map[string]any{
		"action": string(action.Type),
	}); err != nil {
		return nil, err
	}

	log.Info("action executed", "action", action.Type)
	return done, nil
}

// CancelThread cancels a thread that has not been approved yet.
func (s *Service) CancelThread(ctx context.Context, id domain.ThreadID, userID domain.UserID) (*domain.Thread, error) {
	log := observability.LoggerFromContext(ctx).With("thread_id", id, "user_id", userID)

	t, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !policy.CanCancel(t) {
		return nil, stateConflict(t, "cancel")
	}

	cancelled, err := s.transition(ctx, id, t.Status, domain.StatusCancelled, domain.ThreadPatch{})
	if err != nil {
		return nil, err
	}

	if err := s.logAudit(ctx, id, domain.AuditCancelled, userID, map[string]any{
		"previous_status": string(t.Status),
	}); err != nil {
		return nil, err
	}

	log.Info("thread cancelled", "previous_status", t.Status)
	return cancelled, nil
}

type ExecuteProposalInput struct {
	ThreadID domain.ThreadID
	UserID   domain.UserID
	Proposal *domain.Proposal
}

// ExecuteProposalWithoutThread runs a caller-supplied proposal for a thread
// that storage does not know about. The proposal is untrusted and validated
// first and only its valid branches are kept. The returned thread is
// synthetic and never persisted.
//
// Guarantees are weaker than ApproveAction: there is no stored approval and
// replay protection only lasts for the life of the process. Each thread id
// executes at most once, even when the dispatch fails.
func (s *Service) ExecuteProposalWithoutThread(ctx context.Context, in ExecuteProposalInput) (*domain.Thread, error) {
	log := observability.LoggerFromContext(ctx).With("thread_id", in.ThreadID, "user_id", in.UserID)

	if strings.TrimSpace(string(in.ThreadID)) == "" {
		return nil, fmt.Errorf("%w: thread id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(string(in.UserID)) == "" {
		return nil, fmt.Errorf("%w: user is required", domain.ErrInvalidInput)
	}
	if err := policy.ValidateProposal(in.Proposal); err != nil {
		return nil, err
	}

	_, err := s.store.GetThread(ctx, in.ThreadID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: thread %s exists, approve it instead", domain.ErrStateConflict, in.ThreadID)
	case !isNotFound(err):
		return nil, err
	}

	if !s.reserve(in.ThreadID) {
		return nil, fmt.Errorf("%w: thread %s was already executed", domain.ErrStateConflict, in.ThreadID)
	}

	proposal := policy.ValidBranches(in.Proposal)
	now := s.clock.Now()
	synthetic := &domain.Thread{
		ID:        in.ThreadID,
		OwnerID:   in.UserID,
		Kind:      kindOf(proposal),
		Status:    domain.StatusApproved,
		Proposal:  proposal,
		CreatedAt: now,
		UpdatedAt: now,
	}

	action := policy.ActionFromThread(synthetic)
	if action == nil {
		return nil, fmt.Errorf("no action derived from proposal of thread %s", in.ThreadID)
	}
	if err := policy.ValidateAction(action); err != nil {
		return nil, err
	}

	log.Warn("executing proposal without a stored thread", "action", action.Type)

	if err := s.toolbox.Dispatch(ctx, toolContext(ctx, in.ThreadID, in.UserID), action); err != nil {
		log.Error("degraded execution failed", "action", action.Type, "error", err)
		return nil, fmt.Errorf("execute %s for thread %s: %w", action.Type, in.ThreadID, err)
	}

	executedAt := s.clock.Now()
	synthetic.Status = domain.StatusDone
	synthetic.ExecutedAt = &executedAt
	synthetic.UpdatedAt = executedAt

	if err := s.logAudit(ctx, in.ThreadID, domain.AuditExecuted, in.UserID, map[string]any{
		"action":   string(action.Type),
		"degraded": true,
	}); err != nil {
		return nil, err
	}

	return synthetic, nil
}

// reserve records id as executed and reports whether it was new.
func (s *Service) reserve(id domain.ThreadID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.executed[id]; seen {
		return false
	}
	s.executed[id] = struct{}{}
	return true
}

func kindOf(p *domain.Proposal) domain.ThreadKind {
	if p.Schedule != nil {
		return domain.KindSchedule
	}
	return domain.KindEmail
}

func toolContext(ctx context.Context, id domain.ThreadID, userID domain.UserID) tools.ToolContext {
	return tools.ToolContext{
		ThreadID:  id,
		UserID:    userID,
		RequestID: observability.RequestID(ctx),
	}
}
