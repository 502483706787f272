package agentflow

import (
	"context"
	"fmt"
	"time"

	"github.com/PabloGalante/huddle/internal/domain"
	"github.com/PabloGalante/huddle/internal/observability"
)

// Orchestrator picks the agent for a thread kind and runs it.
type Orchestrator struct {
	agents map[domain.ThreadKind]Agent
}

// NewDefaultOrchestrator wires the schedule agent and the email agent.
// llm may be nil.
func NewDefaultOrchestrator(calendar domain.Calendar, clock domain.Clock, llm domain.LLMClient) *Orchestrator {
	return NewOrchestrator(map[domain.ThreadKind]Agent{
		domain.KindSchedule: NewScheduleAgent(calendar, clock, llm),
		domain.KindEmail:    NewEmailAgent(llm),
	})
}

func NewOrchestrator(agents map[domain.ThreadKind]Agent) *Orchestrator {
	return &Orchestrator{agents: agents}
}

// AgentFor resolves the agent responsible for kind.
func (o *Orchestrator) AgentFor(kind domain.ThreadKind) (Agent, error) {
	ag, ok := o.agents[kind]
	if !ok || ag == nil {
		return nil, fmt.Errorf("no agent configured for thread kind %q", kind)
	}
	return ag, nil
}

// Run executes the agent for kind once.
func (o *Orchestrator) Run(ctx context.Context, kind domain.ThreadKind, in AgentInput) (AgentOutput, error) {
	ag, err := o.AgentFor(kind)
	if err != nil {
		return AgentOutput{}, err
	}
	return Run(ctx, ag, in)
}

// Run executes a resolved agent once, with timing logs.
func Run(ctx context.Context, ag Agent, in AgentInput) (AgentOutput, error) {
	log := observability.LoggerFromContext(ctx).With(
		"agent", ag.Name(),
		"owner_id", in.OwnerID,
		"participants", len(in.ParticipantIDs),
	)

	start := time.Now()
	log.Info("agent run start")

	out, err := ag.Plan(ctx, in)
	if err != nil {
		log.Error("agent failed", "error", err)
		return AgentOutput{}, fmt.Errorf("agent %s failed: %w", ag.Name(), err)
	}
	if out.Proposal == nil {
		return AgentOutput{}, fmt.Errorf("agent %s returned no proposal", ag.Name())
	}

	log.Info("agent run end", "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}
