package policy

import (
	"errors"
	"fmt"

	"github.com/PabloGalante/huddle/internal/domain"
)

// ValidateProposal checks the shape of a proposal that crossed a trust
// boundary. Agent output is not passed through here.
//
// A proposal is valid when at least one present branch is valid on its own.
// Errors wrap domain.ErrInvalidProposal.
func ValidateProposal(p *domain.Proposal) error {
	if p == nil {
		return fmt.Errorf("%w: proposal is missing", domain.ErrInvalidProposal)
	}
	if p.Schedule == nil && p.Email == nil {
		return fmt.Errorf("%w: neither schedule nor email is present", domain.ErrInvalidProposal)
	}

	var errs []error
	if p.Schedule != nil {
		err := validateSchedule(p.Schedule)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if p.Email != nil {
		err := validateEmail(p.Email)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidProposal, errors.Join(errs...))
}

// ValidBranches returns a copy of p without the branches that fail
// validation, so ActionFromThread only ever sees a valid one.
func ValidBranches(p *domain.Proposal) *domain.Proposal {
	if p == nil {
		return nil
	}

	out := &domain.Proposal{Summary: p.Summary}
	if p.Schedule != nil && validateSchedule(p.Schedule) == nil {
		out.Schedule = p.Schedule
	}
	if p.Email != nil && validateEmail(p.Email) == nil {
		out.Email = p.Email
	}
	return out
}

// ValidateAction checks an action's shape before dispatch.
func ValidateAction(a *domain.Action) error {
	if a == nil {
		return fmt.Errorf("%w: action is missing", domain.ErrInvalidProposal)
	}

	var err error
	switch a.Type {
	case domain.ActionCreateEvent:
		if a.Event == nil {
			return fmt.Errorf("%w: create_event without event", domain.ErrInvalidProposal)
		}
		err = validateSchedule(&domain.ScheduleProposal{
			Start:          a.Event.Start,
			End:            a.Event.End,
			Title:          a.Event.Title,
			ParticipantIDs: a.Event.ParticipantIDs,
		})
	case domain.ActionSendEmail:
		if a.Email == nil {
			return fmt.Errorf("%w: send_email without mail", domain.ErrInvalidProposal)
		}
		err = validateEmail(&domain.EmailProposal{
			Recipients:  a.Email.To,
			Subject:     a.Email.Subject,
			BodySnippet: a.Email.Body,
		})
	default:
		return fmt.Errorf("%w: unknown action type %q", domain.ErrInvalidProposal, a.Type)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidProposal, err)
	}
	return nil
}

func validateSchedule(s *domain.ScheduleProposal) error {
	var errs []error
	if s.Start.IsZero() {
		errs = append(errs, errors.New("schedule.start is missing"))
	}
	if s.End.IsZero() {
		errs = append(errs, errors.New("schedule.end is missing"))
	}
	if !s.Start.IsZero() && !s.End.IsZero() && !s.End.After(s.Start) {
		errs = append(errs, errors.New("schedule.end must be after schedule.start"))
	}
	if s.ParticipantIDs == nil {
		errs = append(errs, errors.New("schedule.participant_ids is missing"))
	}
	return errors.Join(errs...)
}

func validateEmail(e *domain.EmailProposal) error {
	var errs []error
	if len(e.Recipients) == 0 {
		errs = append(errs, errors.New("email.recipients is empty"))
	}
	if e.Subject == "" {
		errs = append(errs, errors.New("email.subject is missing"))
	}
	if e.BodySnippet == "" {
		errs = append(errs, errors.New("email.body_snippet is missing"))
	}
	return errors.Join(errs...)
}
