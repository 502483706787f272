// Package policy holds the thread state machine guards and the mapping from
// an approved proposal to the action that executes it. Everything here is pure.
package policy

import (
	"slices"

	"github.com/PabloGalante/huddle/internal/domain"
)

// CanRunPlanning is true only for draft threads.
func CanRunPlanning(t *domain.Thread) bool {
	return t != nil && t.Status == domain.StatusDraft
}

// CanApprove is true only for proposed threads carrying a proposal.
func CanApprove(t *domain.Thread) bool {
	return t != nil && t.Status == domain.StatusProposed && t.Proposal != nil
}

// CanCancel is true before execution starts. Approved and done threads are final.
func CanCancel(t *domain.Thread) bool {
	if t == nil {
		return false
	}
	switch t.Status {
	case domain.StatusDraft, domain.StatusPlanning, domain.StatusProposed:
		return true
	default:
		return false
	}
}

// ActionFromThread derives the executable action of an approved thread.
// It returns nil unless the thread is approved and has a proposal.
// A schedule branch wins over an email branch when both are present.
func ActionFromThread(t *domain.Thread) *domain.Action {
	if t == nil || t.Status != domain.StatusApproved || t.Proposal == nil {
		return nil
	}

	p := t.Proposal
	switch {
	case p.Schedule != nil:
		ids := slices.Clone(p.Schedule.ParticipantIDs)
		return &domain.Action{
			Type:        domain.ActionCreateEvent,
			OrganizerID: t.OwnerID,
			Event: &domain.EventRequest{
				Start:          p.Schedule.Start,
				End:            p.Schedule.End,
				Title:          p.Schedule.Title,
				ParticipantIDs: ids,
			},
		}
	case p.Email != nil:
		to := slices.Clone(p.Email.Recipients)
		return &domain.Action{
			Type:        domain.ActionSendEmail,
			OrganizerID: t.OwnerID,
			Email: &domain.OutgoingMail{
				To:      to,
				Subject: p.Email.Subject,
				Body:    p.Email.BodySnippet,
			},
		}
	default:
		return nil
	}
}
