package agentflow

import (
	"context"

	"github.com/PabloGalante/huddle/internal/domain"
)

// Agent turns a thread's prompt and participants into a proposal.
type Agent interface {
	Name() string
	Plan(ctx context.Context, in AgentInput) (AgentOutput, error)
}

type AgentInput struct {
	OwnerID domain.UserID
	// ParticipantIDs excludes the owner.
	ParticipantIDs []domain.UserID
	Prompt         string
}

type AgentOutput struct {
	Proposal  *domain.Proposal
	Reasoning string
}
