package agentflow

import (
	"time"

	"github.com/PabloGalante/huddle/internal/domain"
)

const (
	SlotDuration    = 30 * time.Minute
	DiscoveryWindow = 14 * 24 * time.Hour

	fallbackHour = 10
)

// windowStart truncates now to the top of its hour in now's location.
// time.Truncate is avoided because it rounds in absolute time, which is off
// for zones with a non-whole-hour offset.
func windowStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
}

// firstFreeSlot scans [from, to) in steps of d and returns the start of the
// first slot that no busy interval of any participant overlaps.
func firstFreeSlot(from, to time.Time, d time.Duration, busy [][]domain.BusySlot) (time.Time, bool) {
	for start := from; !start.Add(d).After(to); start = start.Add(d) {
		end := start.Add(d)
		if slotFree(start, end, busy) {
			return start, true
		}
	}
	return time.Time{}, false
}

func slotFree(start, end time.Time, busy [][]domain.BusySlot) bool {
	for _, slots := range busy {
		for _, b := range slots {
			if b.Overlaps(start, end) {
				return false
			}
		}
	}
	return true
}

// fallbackSlot is tomorrow at 10:00 in now's location.
func fallbackSlot(now time.Time) time.Time {
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), fallbackHour, 0, 0, 0, now.Location())
}
