package agentflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/huddle/internal/domain"
	"github.com/PabloGalante/huddle/internal/observability"
)

const DefaultMeetingTitle = "Meeting"

const titleSystemPrompt = `You name calendar events.
Answer with a short meeting title (at most 8 words) for the request below.
Answer with the title only, no quotes and no punctuation at the end.`

// ScheduleAgent finds the earliest 30 minute slot in which the owner and
// every participant are free.
type ScheduleAgent struct {
	calendar domain.Calendar
	clock    domain.Clock
	llm      domain.LLMClient
}

// NewScheduleAgent builds a ScheduleAgent. llm is optional and only used to
// derive a title from the prompt.
func NewScheduleAgent(calendar domain.Calendar, clock domain.Clock, llm domain.LLMClient) *ScheduleAgent {
	return &ScheduleAgent{
		calendar: calendar,
		clock:    clock,
		llm:      llm,
	}
}

func (a *ScheduleAgent) Name() string {
	return "scheduler"
}

func (a *ScheduleAgent) Plan(ctx context.Context, in AgentInput) (AgentOutput, error) {
	log := observability.LoggerFromContext(ctx).With("agent", a.Name())

	now := a.clock.Now()
	from := windowStart(now)
	to := from.Add(DiscoveryWindow)

	everyone := make([]domain.UserID, 0, len(in.ParticipantIDs)+1)
	everyone = append(everyone, in.OwnerID)
	everyone = append(everyone, in.ParticipantIDs...)

	// One call per participant, in order.
	busy := make([][]domain.BusySlot, 0, len(everyone))
	for _, id := range everyone {
		slots, err := a.calendar.GetBusySlots(ctx, id, from, to)
		if err != nil {
			return AgentOutput{}, fmt.Errorf("fetch busy slots for %s: %w", id, err)
		}
		busy = append(busy, slots)
	}

	start, found := firstFreeSlot(from, to, SlotDuration, busy)
	if !found {
		start = fallbackSlot(now)
		log.Warn("no common free slot in window, using fallback",
			"window_start", from,
			"window_end", to,
			"fallback", start,
		)
	}
	end := start.Add(SlotDuration)

	title, err := a.title(ctx, in.Prompt)
	if err != nil {
		return AgentOutput{}, err
	}

	proposal := &domain.Proposal{
		Summary: fmt.Sprintf("%s on %s for %d participant(s)",
			title, start.Format("Mon Jan 2 15:04 MST"), len(everyone)),
		Schedule: &domain.ScheduleProposal{
			Start:          start,
			End:            end,
			Title:          title,
			ParticipantIDs: everyone,
		},
	}

	return AgentOutput{
		Proposal:  proposal,
		Reasoning: reasoning(len(everyone), found),
	}, nil
}

func (a *ScheduleAgent) title(ctx context.Context, prompt string) (string, error) {
	if a.llm == nil || strings.TrimSpace(prompt) == "" {
		return DefaultMeetingTitle, nil
	}

	out, err := a.llm.Complete(ctx, domain.Completion{
		System:   titleSystemPrompt,
		Prompt:   prompt,
		MaxChars: 80,
	})
	if err != nil {
		return "", fmt.Errorf("derive meeting title: %w", err)
	}

	out = strings.TrimSpace(strings.Trim(strings.TrimSpace(out), `"'`))
	if out == "" {
		return DefaultMeetingTitle, nil
	}
	return out, nil
}

func reasoning(calendars int, found bool) string {
	var b strings.Builder
	if calendars == 1 {
		b.WriteString("Checked one calendar")
	} else {
		fmt.Fprintf(&b, "Compared %d calendars", calendars)
	}
	fmt.Fprintf(&b, " over the next %d days in %d minute slots", int(DiscoveryWindow/(24*time.Hour)), int(SlotDuration/time.Minute))
	if found {
		b.WriteString(" and picked the earliest slot free for everyone.")
	} else {
		b.WriteString("; no slot was free for everyone, so the default slot tomorrow at 10:00 was proposed.")
	}
	return b.String()
}
