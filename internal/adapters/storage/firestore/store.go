package firestore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/huddle/internal/domain"
)

// Store implements domain.ThreadStore, domain.AuditLog and domain.AuditReader
// on Firestore.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (HUDDLE_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) threadsCol() *firestore.CollectionRef {
	return s.client.Collection("threads")
}

func (s *Store) threadDoc(id domain.ThreadID) *firestore.DocumentRef {
	return s.threadsCol().Doc(string(id))
}

func (s *Store) auditCol(threadID domain.ThreadID) *firestore.CollectionRef {
	return s.threadDoc(threadID).Collection("audit")
}

// auditSeqDoc holds the next audit sequence number of a thread. It lives
// outside the thread document so degraded executions, which have no stored
// thread, can still be numbered.
func (s *Store) auditSeqDoc(threadID domain.ThreadID) *firestore.DocumentRef {
	return s.client.Collection("audit_seq").Doc(string(threadID))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type participantDoc struct {
	UserID      string `firestore:"user_id"`
	Email       string `firestore:"email"`
	DisplayName string `firestore:"display_name"`
}

type scheduleDoc struct {
	Start          time.Time `firestore:"start"`
	End            time.Time `firestore:"end"`
	Title          string    `firestore:"title"`
	ParticipantIDs []string  `firestore:"participant_ids"`
}

type emailDoc struct {
	Recipients  []string `firestore:"recipients"`
	Subject     string   `firestore:"subject"`
	BodySnippet string   `firestore:"body_snippet"`
}

type proposalDoc struct {
	Summary  string       `firestore:"summary"`
	Schedule *scheduleDoc `firestore:"schedule"`
	Email    *emailDoc    `firestore:"email"`
}

type threadDoc struct {
	OwnerID        string           `firestore:"owner_id"`
	Kind           string           `firestore:"kind"`
	Status         string           `firestore:"status"`
	Prompt         string           `firestore:"prompt"`
	Participants   []participantDoc `firestore:"participants"`
	ParticipantIDs []string         `firestore:"participant_ids"`
	Proposal       *proposalDoc     `firestore:"proposal"`
	ExecutedAt     *time.Time       `firestore:"executed_at"`
	CreatedAt      time.Time        `firestore:"created_at"`
	UpdatedAt      time.Time        `firestore:"updated_at"`
}

type auditDoc struct {
	Seq     int64          `firestore:"seq"`
	Action  string         `firestore:"action"`
	UserID  string         `firestore:"user_id"`
	Payload map[string]any `firestore:"payload"`
	At      time.Time      `firestore:"at"`
}

type auditSeq struct {
	Next int64 `firestore:"next"`
}

// ─────────────────────────────────────────
// ThreadStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateThread(ctx context.Context, t *domain.Thread) (*domain.Thread, error) {
	stored := *t
	if stored.ID == "" {
		stored.ID = domain.ThreadID(uuid.NewString())
	}

	if _, err := s.threadDoc(stored.ID).Create(ctx, toThreadDoc(&stored)); err != nil {
		return nil, fmt.Errorf("firestore CreateThread: %w", err)
	}
	return &stored, nil
}

func (s *Store) GetThread(ctx context.Context, id domain.ThreadID) (*domain.Thread, error) {
	snap, err := s.threadDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetThread: %w", err)
	}
	return decodeThread(snap)
}

// UpdateThread applies the patch inside a transaction so the status check
// and the write are atomic.
func (s *Store) UpdateThread(ctx context.Context, id domain.ThreadID, patch domain.ThreadPatch) (*domain.Thread, error) {
	ref := s.threadDoc(id)

	var updated *domain.Thread
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
			}
			return err
		}

		current, err := decodeThread(snap)
		if err != nil {
			return err
		}
		if patch.ExpectStatus != nil && current.Status != *patch.ExpectStatus {
			return fmt.Errorf("thread %s is %s, expected %s: %w",
				id, current.Status, *patch.ExpectStatus, domain.ErrStateConflict)
		}

		patch.Apply(current)
		updated = current
		return tx.Set(ref, toThreadDoc(current))
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrStateConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("firestore UpdateThread: %w", err)
	}
	return updated, nil
}

// ListThreadsForUser merges the owner query and the participant query.
func (s *Store) ListThreadsForUser(ctx context.Context, userID domain.UserID) ([]*domain.Thread, error) {
	queries := []firestore.Query{
		s.threadsCol().Where("owner_id", "==", string(userID)),
		s.threadsCol().Where("participant_ids", "array-contains", string(userID)),
	}

	seen := make(map[domain.ThreadID]struct{})
	var out []*domain.Thread
	for _, q := range queries {
		iter := q.Documents(ctx)
		for {
			snap, err := iter.Next()
			if err != nil {
				if err == iterator.Done {
					break
				}
				iter.Stop()
				return nil, fmt.Errorf("firestore ListThreadsForUser: %w", err)
			}

			t, err := decodeThread(snap)
			if err != nil {
				iter.Stop()
				return nil, err
			}
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			out = append(out, t)
		}
		iter.Stop()
	}

	slices.SortFunc(out, func(a, b *domain.Thread) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// ─────────────────────────────────────────
// Audit implementation
// ─────────────────────────────────────────

// Log appends an entry under the next sequence number of its thread. The
// counter and the entry are written in one transaction, so entries logged at
// the same instant keep their write order.
func (s *Store) Log(ctx context.Context, entry domain.AuditEntry) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		seqRef := s.auditSeqDoc(entry.ThreadID)

		var seq auditSeq
		snap, err := tx.Get(seqRef)
		switch {
		case err == nil:
			if err := snap.DataTo(&seq); err != nil {
				return fmt.Errorf("decode auditSeq: %w", err)
			}
		case status.Code(err) != codes.NotFound:
			return err
		}

		doc := toAuditDoc(entry, seq.Next)
		if err := tx.Set(seqRef, auditSeq{Next: seq.Next + 1}); err != nil {
			return err
		}
		return tx.Create(s.auditCol(entry.ThreadID).Doc(auditDocID(doc.Seq)), doc)
	})
	if err != nil {
		return fmt.Errorf("firestore Log: %w", err)
	}
	return nil
}

func (s *Store) ListAuditEntries(ctx context.Context, threadID domain.ThreadID) ([]domain.AuditEntry, error) {
	iter := s.auditCol(threadID).OrderBy("seq", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	out := make([]domain.AuditEntry, 0)
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListAuditEntries: %w", err)
		}

		var doc auditDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode auditDoc: %w", err)
		}
		out = append(out, domain.AuditEntry{
			ThreadID: threadID,
			Action:   domain.AuditAction(doc.Action),
			UserID:   domain.UserID(doc.UserID),
			Payload:  doc.Payload,
			At:       doc.At,
		})
	}
	return out, nil
}

// ─────────────────────────────────────────
// Mapping
// ─────────────────────────────────────────

// auditDocID zero-pads seq so document ids sort like the sequence.
func auditDocID(seq int64) string {
	return fmt.Sprintf("%020d", seq)
}

func toAuditDoc(entry domain.AuditEntry, seq int64) auditDoc {
	return auditDoc{
		Seq:     seq,
		Action:  string(entry.Action),
		UserID:  string(entry.UserID),
		Payload: entry.Payload,
		At:      entry.At,
	}
}

func toThreadDoc(t *domain.Thread) threadDoc {
	doc := threadDoc{
		OwnerID:    string(t.OwnerID),
		Kind:       string(t.Kind),
		Status:     string(t.Status),
		Prompt:     t.Prompt,
		ExecutedAt: t.ExecutedAt,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}

	for _, p := range t.Participants {
		doc.Participants = append(doc.Participants, participantDoc{
			UserID:      string(p.UserID),
			Email:       p.Email,
			DisplayName: p.DisplayName,
		})
		doc.ParticipantIDs = append(doc.ParticipantIDs, string(p.UserID))
	}

	if p := t.Proposal; p != nil {
		pd := &proposalDoc{Summary: p.Summary}
		if p.Schedule != nil {
			ids := make([]string, 0, len(p.Schedule.ParticipantIDs))
			for _, id := range p.Schedule.ParticipantIDs {
				ids = append(ids, string(id))
			}
			pd.Schedule = &scheduleDoc{
				Start:          p.Schedule.Start,
				End:            p.Schedule.End,
				Title:          p.Schedule.Title,
				ParticipantIDs: ids,
			}
		}
		if p.Email != nil {
			pd.Email = &emailDoc{
				Recipients:  slices.Clone(p.Email.Recipients),
				Subject:     p.Email.Subject,
				BodySnippet: p.Email.BodySnippet,
			}
		}
		doc.Proposal = pd
	}
	return doc
}

func decodeThread(snap *firestore.DocumentSnapshot) (*domain.Thread, error) {
	var doc threadDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode threadDoc: %w", err)
	}

	t := &domain.Thread{
		ID:         domain.ThreadID(snap.Ref.ID),
		OwnerID:    domain.UserID(doc.OwnerID),
		Kind:       domain.ThreadKind(doc.Kind),
		Status:     domain.ThreadStatus(doc.Status),
		Prompt:     doc.Prompt,
		ExecutedAt: doc.ExecutedAt,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}

	for _, p := range doc.Participants {
		t.Participants = append(t.Participants, domain.Participant{
			UserID:      domain.UserID(p.UserID),
			Email:       p.Email,
			DisplayName: p.DisplayName,
		})
	}

	if pd := doc.Proposal; pd != nil {
		p := &domain.Proposal{Summary: pd.Summary}
		if pd.Schedule != nil {
			ids := make([]domain.UserID, 0, len(pd.Schedule.ParticipantIDs))
			for _, id := range pd.Schedule.ParticipantIDs {
				ids = append(ids, domain.UserID(id))
			}
			p.Schedule = &domain.ScheduleProposal{
				Start:          pd.Schedule.Start,
				End:            pd.Schedule.End,
				Title:          pd.Schedule.Title,
				ParticipantIDs: ids,
			}
		}
		if pd.Email != nil {
			recipients := pd.Email.Recipients
			if recipients == nil {
				recipients = []string{}
			}
			p.Email = &domain.EmailProposal{
				Recipients:  recipients,
				Subject:     pd.Email.Subject,
				BodySnippet: pd.Email.BodySnippet,
			}
		}
		t.Proposal = p
	}
	return t, nil
}
