package calendar_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/huddle/internal/adapters/calendar"
	"github.com/PabloGalante/huddle/internal/domain"
)

var day = time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func TestGetBusySlotsFiltersAndSorts(t *testing.T) {
	cal := calendar.NewMemoryCalendar()
	cal.AddBusy("u1",
		domain.BusySlot{Start: at(14, 0), End: at(15, 0)},
		domain.BusySlot{Start: at(9, 0), End: at(10, 0)},
		domain.BusySlot{Start: at(18, 0), End: at(19, 0)},
	)

	got, err := cal.GetBusySlots(context.Background(), "u1", at(9, 30), at(18, 0))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, at(9, 0), got[0].Start)
	assert.Equal(t, at(14, 0), got[1].Start)

	none, err := cal.GetBusySlots(context.Background(), "nobody", at(0, 0), at(23, 0))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCreateEventBlocksAttendees(t *testing.T) {
	cal := calendar.NewMemoryCalendar()
	ev := domain.EventRequest{
		Start:          at(11, 0),
		End:            at(11, 30),
		Title:          "Sync",
		ParticipantIDs: []domain.UserID{"u2", "u1"},
	}

	require.NoError(t, cal.CreateEvent(context.Background(), "u1", ev))

	events := cal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.UserID("u1"), events[0].OrganizerID)
	assert.Equal(t, "Sync", events[0].Event.Title)

	for _, id := range []domain.UserID{"u1", "u2"} {
		busy, err := cal.GetBusySlots(context.Background(), id, at(0, 0), at(23, 59))
		require.NoError(t, err)
		assert.Len(t, busy, 1, "user %s", id)
	}
}

func TestCreateEventRejectsEmptyRange(t *testing.T) {
	cal := calendar.NewMemoryCalendar()

	err := cal.CreateEvent(context.Background(), "u1", domain.EventRequest{Start: at(10, 0), End: at(10, 0)})

	assert.Error(t, err)
	assert.Empty(t, cal.Events())
}

func TestCanceledContext(t *testing.T) {
	cal := calendar.NewMemoryCalendar()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cal.GetBusySlots(ctx, "u1", at(0, 0), at(1, 0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendars.yaml")
	data := []byte(`busy:
  u1:
    - start: 2026-10-20T09:00:00Z
      end: 2026-10-20T10:00:00Z
  u2:
    - start: 2026-10-20T13:00:00Z
      end: 2026-10-20T13:30:00Z
    - start: 2026-10-20T16:00:00Z
      end: 2026-10-20T17:00:00Z
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cal := calendar.NewMemoryCalendar()
	require.NoError(t, cal.LoadFixtures(path))

	u1, err := cal.GetBusySlots(context.Background(), "u1", at(0, 0), at(23, 0))
	require.NoError(t, err)
	require.Len(t, u1, 1)
	assert.True(t, u1[0].Start.Equal(at(9, 0)))

	u2, err := cal.GetBusySlots(context.Background(), "u2", at(0, 0), at(23, 0))
	require.NoError(t, err)
	assert.Len(t, u2, 2)
}

func TestLoadFixturesErrors(t *testing.T) {
	cal := calendar.NewMemoryCalendar()

	assert.Error(t, cal.LoadFixtures(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, cal.LoadFixturesYAML([]byte("busy: [")))
	assert.Error(t, cal.LoadFixturesYAML([]byte(`busy:
  u1:
    - start: 2026-10-20T10:00:00Z
      end: 2026-10-20T09:00:00Z
`)))
}
