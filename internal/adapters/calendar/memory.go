package calendar

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/PabloGalante/huddle/internal/domain"
)

// CreatedEvent is an event written through CreateEvent.
type CreatedEvent struct {
	OrganizerID domain.UserID
	Event       domain.EventRequest
}

// MemoryCalendar is an in-memory implementation of domain.Calendar.
// Created events become busy time for the organizer and every participant.
// It is NOT persistent and is only suitable for development / local mode.
type MemoryCalendar struct {
	mu     sync.RWMutex
	busy   map[domain.UserID][]domain.BusySlot
	events []CreatedEvent
}

func NewMemoryCalendar() *MemoryCalendar {
	return &MemoryCalendar{
		busy: make(map[domain.UserID][]domain.BusySlot),
	}
}

// AddBusy registers existing commitments for a user.
func (c *MemoryCalendar) AddBusy(userID domain.UserID, slots ...domain.BusySlot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.busy[userID] = append(c.busy[userID], slots...)
}

// GetBusySlots returns the user's slots overlapping [from, to), ordered by start.
func (c *MemoryCalendar) GetBusySlots(ctx context.Context, userID domain.UserID, from, to time.Time) ([]domain.BusySlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.BusySlot, 0)
	for _, b := range c.busy[userID] {
		if b.Overlaps(from, to) {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b domain.BusySlot) int {
		return a.Start.Compare(b.Start)
	})
	return out, nil
}

func (c *MemoryCalendar) CreateEvent(ctx context.Context, userID domain.UserID, ev domain.EventRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ev.End.After(ev.Start) {
		return fmt.Errorf("create event: end %s is not after start %s", ev.End, ev.Start)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, CreatedEvent{OrganizerID: userID, Event: ev})

	slot := domain.BusySlot{Start: ev.Start, End: ev.End}
	attendees := append([]domain.UserID{userID}, ev.ParticipantIDs...)
	seen := make(map[domain.UserID]struct{}, len(attendees))
	for _, id := range attendees {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		c.busy[id] = append(c.busy[id], slot)
	}
	return nil
}

// Events returns a copy of every created event, in creation order.
func (c *MemoryCalendar) Events() []CreatedEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.events)
}
