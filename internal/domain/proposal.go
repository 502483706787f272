package domain

// Proposal is the agent's suggestion awaiting approval. Exactly one of
// Schedule or Email is expected to be set. Never edited once attached.
type Proposal struct {
	Summary  string            `json:"summary"`
	Schedule *ScheduleProposal `json:"schedule,omitempty"`
	Email    *EmailProposal    `json:"email,omitempty"`
}

type ScheduleProposal struct {
	Start          Timestamp `json:"start"`
	End            Timestamp `json:"end"`
	Title          string    `json:"title"`
	ParticipantIDs []UserID  `json:"participant_ids"`
}

type EmailProposal struct {
	Recipients  []string `json:"recipients"`
	Subject     string   `json:"subject"`
	BodySnippet string   `json:"body_snippet"`
}

// BusySlot is an existing commitment, the half-open interval [Start, End).
type BusySlot struct {
	Start Timestamp `json:"start" yaml:"start"`
	End   Timestamp `json:"end" yaml:"end"`
}

// Overlaps reports whether [start, end) intersects the slot.
func (b BusySlot) Overlaps(start, end Timestamp) bool {
	return b.Start.Before(end) && start.Before(b.End)
}

type ActionType string

const (
	ActionSendEmail   ActionType = "send_email"
	ActionCreateEvent ActionType = "create_event"
)

// Action is the side effect derived from an approved proposal. Never persisted.
type Action struct {
	Type  ActionType
	Email *OutgoingMail
	Event *EventRequest
	// OrganizerID owns the calendar the event is created in.
	OrganizerID UserID
}

type OutgoingMail struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

type EventRequest struct {
	Start          Timestamp `json:"start"`
	End            Timestamp `json:"end"`
	Title          string    `json:"title"`
	ParticipantIDs []UserID  `json:"participant_ids"`
}
