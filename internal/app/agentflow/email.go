package agentflow

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PabloGalante/huddle/internal/domain"
)

const subjectMaxRunes = 50

const emailSystemPrompt = `You draft short, friendly work emails.
Write only the email body for the request below. No subject line, no placeholders.`

// EmailAgent drafts an email from the prompt. It performs no I/O unless an
// LLM is configured, in which case the LLM writes the body.
type EmailAgent struct {
	llm domain.LLMClient
}

func NewEmailAgent(llm domain.LLMClient) *EmailAgent {
	return &EmailAgent{llm: llm}
}

func (a *EmailAgent) Name() string {
	return "drafter"
}

// Plan leaves the recipient list empty: addresses come from directory data
// the caller owns.
func (a *EmailAgent) Plan(ctx context.Context, in AgentInput) (AgentOutput, error) {
	subject := subjectFromPrompt(in.Prompt)

	body, err := a.body(ctx, in.Prompt)
	if err != nil {
		return AgentOutput{}, err
	}

	return AgentOutput{
		Proposal: &domain.Proposal{
			Summary: fmt.Sprintf("Draft email: %s", subject),
			Email: &domain.EmailProposal{
				Recipients:  []string{},
				Subject:     subject,
				BodySnippet: body,
			},
		},
		Reasoning: fmt.Sprintf("Drafted an email from the request for %d recipient(s).", len(in.ParticipantIDs)),
	}, nil
}

func (a *EmailAgent) body(ctx context.Context, prompt string) (string, error) {
	if a.llm == nil {
		return defaultBody(prompt), nil
	}

	out, err := a.llm.Complete(ctx, domain.Completion{
		System:   emailSystemPrompt,
		Prompt:   prompt,
		MaxChars: 2000,
	})
	if err != nil {
		return "", fmt.Errorf("draft email body: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return defaultBody(prompt), nil
	}
	return out, nil
}

func defaultBody(prompt string) string {
	return fmt.Sprintf("Hi,\n\nFollowing up on: %s\n\nBest regards", strings.TrimSpace(prompt))
}

// subjectFromPrompt keeps the first 50 characters of the prompt, adding an
// ellipsis when it had to cut.
func subjectFromPrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "(no subject)"
	}
	if utf8.RuneCountInString(prompt) <= subjectMaxRunes {
		return prompt
	}
	runes := []rune(prompt)
	return string(runes[:subjectMaxRunes]) + "..."
}
