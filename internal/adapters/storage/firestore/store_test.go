package firestore

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/huddle/internal/domain"
)

func TestToThreadDoc(t *testing.T) {
	start := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)
	th := &domain.Thread{
		ID:      "t1",
		OwnerID: "u1",
		Kind:    domain.KindSchedule,
		Status:  domain.StatusProposed,
		Participants: []domain.Participant{
			{UserID: "u1"},
			{UserID: "u2", Email: "u2@example.com"},
		},
		Proposal: &domain.Proposal{
			Summary: "Meeting",
			Schedule: &domain.ScheduleProposal{
				Start:          start,
				End:            start.Add(30 * time.Minute),
				Title:          "Meeting",
				ParticipantIDs: []domain.UserID{"u1", "u2"},
			},
		},
	}

	doc := toThreadDoc(th)
	assert.Equal(t, "u1", doc.OwnerID)
	assert.Equal(t, "proposed", doc.Status)
	assert.Equal(t, []string{"u1", "u2"}, doc.ParticipantIDs)
	require.Len(t, doc.Participants, 2)
	assert.Equal(t, "u2@example.com", doc.Participants[1].Email)
	require.NotNil(t, doc.Proposal)
	require.NotNil(t, doc.Proposal.Schedule)
	assert.Nil(t, doc.Proposal.Email)
	assert.Equal(t, []string{"u1", "u2"}, doc.Proposal.Schedule.ParticipantIDs)
	assert.Nil(t, doc.ExecutedAt)
}

func TestAuditDocIDSortsBySequence(t *testing.T) {
	seqs := []int64{10, 2, 0, 1, 100}
	ids := make([]string, 0, len(seqs))
	for _, seq := range seqs {
		ids = append(ids, auditDocID(seq))
	}

	slices.Sort(ids)
	assert.Equal(t, []string{
		auditDocID(0), auditDocID(1), auditDocID(2), auditDocID(10), auditDocID(100),
	}, ids)
	assert.Len(t, auditDocID(7), 20)
}

func TestToAuditDoc(t *testing.T) {
	at := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)

	doc := toAuditDoc(domain.AuditEntry{
		ThreadID: "t1",
		Action:   domain.AuditExecuted,
		UserID:   "u1",
		Payload:  map[string]any{"action": "send_email"},
		At:       at,
	}, 3)

	assert.Equal(t, int64(3), doc.Seq)
	assert.Equal(t, "executed", doc.Action)
	assert.Equal(t, "u1", doc.UserID)
	assert.Equal(t, "send_email", doc.Payload["action"])
	assert.True(t, doc.At.Equal(at))
}
