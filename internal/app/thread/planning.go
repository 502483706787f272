package thread

import (
	"context"
	"slices"

	"github.com/PabloGalante/huddle/internal/app/agentflow"
	"github.com/PabloGalante/huddle/internal/app/policy"
	"github.com/PabloGalante/huddle/internal/domain"
	"github.com/PabloGalante/huddle/internal/observability"
)

type RunPlanningOutput struct {
	Thread    *domain.Thread
	Proposal  *domain.Proposal
	Reasoning string
}

// RunPlanning moves a draft thread through planning to proposed.
//
// If the agent fails the error is returned and the thread stays in planning.
func (s *Service) RunPlanning(ctx context.Context, id domain.ThreadID) (*RunPlanningOutput, error) {
	log := observability.LoggerFromContext(ctx).With("thread_id", id)

	t, err := s.store.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanRunPlanning(t) {
		return nil, stateConflict(t, "run planning on")
	}

	agent, err := s.agents.AgentFor(t.Kind)
	if err != nil {
		return nil, err
	}

	if _, err := s.transition(ctx, id, domain.StatusDraft, domain.StatusPlanning, domain.ThreadPatch{}); err != nil {
		return nil, err
	}
	log.Info("planning started", "kind", t.Kind, "agent", agent.Name())

	out, err := agentflow.Run(ctx, agent, agentflow.AgentInput{
		OwnerID:        t.OwnerID,
		ParticipantIDs: t.OtherParticipantIDs(),
		Prompt:         t.Prompt,
	})
	if err != nil {
		log.Error("planning failed, thread left in planning", "error", err)
		return nil, err
	}

	proposal := withRecipients(out.Proposal, t)

	updated, err := s.transition(ctx, id, domain.StatusPlanning, domain.StatusProposed, domain.ThreadPatch{
		Proposal: proposal,
	})
	if err != nil {
		log.Error("failed to attach proposal", "error", err)
		return nil, err
	}

	if err := s.logAudit(ctx, id, domain.AuditPlanningComplete, t.OwnerID, map[string]any{
		"summary": proposal.Summary,
	}); err != nil {
		return nil, err
	}

	log.Info("planning complete", "summary", proposal.Summary)
	return &RunPlanningOutput{
		Thread:    updated,
		Proposal:  proposal,
		Reasoning: out.Reasoning,
	}, nil
}

// RunPlanningAs is RunPlanning restricted to the thread's owner.
func (s *Service) RunPlanningAs(ctx context.Context, id domain.ThreadID, userID domain.UserID) (*RunPlanningOutput, error) {
	if _, err := s.loadOwned(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.RunPlanning(ctx, id)
}

// withRecipients fills an email proposal's empty recipient list with the
// e-mail addresses known for the thread's participants, owner excluded.
// The agent's proposal is not modified.
func withRecipients(p *domain.Proposal, t *domain.Thread) *domain.Proposal {
	if p.Email == nil || len(p.Email.Recipients) > 0 {
		return p
	}

	recipients := make([]string, 0, len(t.Participants))
	for _, part := range t.Participants {
		if part.UserID == t.OwnerID || part.Email == "" {
			continue
		}
		if !slices.Contains(recipients, part.Email) {
			recipients = append(recipients, part.Email)
		}
	}

	email := *p.Email
	email.Recipients = recipients
	filled := *p
	filled.Email = &email
	return &filled
}
