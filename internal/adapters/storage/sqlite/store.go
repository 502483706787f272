package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/PabloGalante/huddle/internal/domain"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store provides SQLite-backed persistence for threads and their audit trail.
// It implements domain.ThreadStore, domain.AuditLog and domain.AuditReader.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite: path is empty")
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc serialises writers per connection; one connection keeps CAS updates simple.
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db)
}

// New returns a Store bound to an existing, migrated database handle.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateThread(ctx context.Context, t *domain.Thread) (*domain.Thread, error) {
	if t == nil {
		return nil, fmt.Errorf("create thread: thread is nil")
	}

	stored := *t
	if stored.ID == "" {
		stored.ID = domain.ThreadID(uuid.NewString())
	}

	row, err := toRow(&stored)
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create thread: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO threads
		(id, owner_id, kind, status, prompt, participants, proposal, executed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.id, row.ownerID, row.kind, row.status, row.prompt, row.participants,
		row.proposal, row.executedAt, row.createdAt, row.updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create thread: insert: %w", err)
	}

	for _, p := range stored.Participants {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO thread_participants (thread_id, user_id) VALUES (?, ?)`,
			row.id, string(p.UserID))
		if err != nil {
			return nil, fmt.Errorf("create thread: insert participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create thread: commit: %w", err)
	}

	return s.GetThread(ctx, stored.ID)
}

const selectThread = `SELECT id, owner_id, kind, status, prompt, participants, proposal, executed_at, created_at, updated_at FROM threads`

func (s *Store) GetThread(ctx context.Context, id domain.ThreadID) (*domain.Thread, error) {
	return getThread(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getThread(ctx context.Context, q queryer, id domain.ThreadID) (*domain.Thread, error) {
	t, err := scanThread(q.QueryRowContext(ctx, selectThread+` WHERE id = ?`, string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get thread %s: %w", id, err)
	}
	return t, nil
}

func (s *Store) UpdateThread(ctx context.Context, id domain.ThreadID, patch domain.ThreadPatch) (*domain.Thread, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update thread: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := getThread(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if patch.ExpectStatus != nil && current.Status != *patch.ExpectStatus {
		return nil, fmt.Errorf("thread %s is %s, expected %s: %w",
			id, current.Status, *patch.ExpectStatus, domain.ErrStateConflict)
	}

	previous := current.Status
	patch.Apply(current)

	row, err := toRow(current)
	if err != nil {
		return nil, fmt.Errorf("update thread: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE threads
		SET status = ?, proposal = ?, executed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		row.status, row.proposal, row.executedAt, row.updatedAt, row.id, string(previous),
	)
	if err != nil {
		return nil, fmt.Errorf("update thread: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update thread: rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("thread %s changed concurrently: %w", id, domain.ErrStateConflict)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update thread: commit: %w", err)
	}
	return current, nil
}

func (s *Store) ListThreadsForUser(ctx context.Context, userID domain.UserID) ([]*domain.Thread, error) {
	rows, err := s.db.QueryContext(ctx, selectThread+`
		WHERE owner_id = ?
		   OR id IN (SELECT thread_id FROM thread_participants WHERE user_id = ?)
		ORDER BY created_at DESC, id ASC`,
		string(userID), string(userID))
	if err != nil {
		return nil, fmt.Errorf("list threads: query: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Thread, 0)
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("list threads: scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list threads: rows: %w", err)
	}
	return out, nil
}

// ─────────────────────────────────────────
// Audit
// ─────────────────────────────────────────

func (s *Store) Log(ctx context.Context, entry domain.AuditEntry) error {
	var payload sql.NullString
	if len(entry.Payload) > 0 {
		b, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("audit: encode payload: %w", err)
		}
		payload = sql.NullString{String: string(b), Valid: true}
	}

	var userID sql.NullString
	if entry.UserID != "" {
		userID = sql.NullString{String: string(entry.UserID), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_entries (thread_id, action, user_id, payload, at) VALUES (?, ?, ?, ?, ?)`,
		string(entry.ThreadID), string(entry.Action), userID, payload, formatTime(entry.At))
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

func (s *Store) ListAuditEntries(ctx context.Context, threadID domain.ThreadID) ([]domain.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT thread_id, action, user_id, payload, at FROM audit_entries WHERE thread_id = ? ORDER BY id ASC`,
		string(threadID))
	if err != nil {
		return nil, fmt.Errorf("list audit entries: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var (
			e               domain.AuditEntry
			thread, action  string
			userID, payload sql.NullString
			atStr           string
		)
		if err := rows.Scan(&thread, &action, &userID, &payload, &atStr); err != nil {
			return nil, fmt.Errorf("list audit entries: scan: %w", err)
		}
		e.ThreadID = domain.ThreadID(thread)
		e.Action = domain.AuditAction(action)
		if userID.Valid {
			e.UserID = domain.UserID(userID.String)
		}
		if payload.Valid {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("list audit entries: decode payload: %w", err)
			}
		}
		if e.At, err = time.Parse(timeLayout, atStr); err != nil {
			return nil, fmt.Errorf("list audit entries: parse at: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: rows: %w", err)
	}
	return out, nil
}

// ─────────────────────────────────────────
// Row mapping
// ─────────────────────────────────────────

type threadRow struct {
	id, ownerID, kind, status, prompt string
	participants                      string
	proposal, executedAt              sql.NullString
	createdAt, updatedAt              string
}

func toRow(t *domain.Thread) (threadRow, error) {
	participants := t.Participants
	if participants == nil {
		participants = []domain.Participant{}
	}
	parts, err := json.Marshal(participants)
	if err != nil {
		return threadRow{}, fmt.Errorf("encode participants: %w", err)
	}

	row := threadRow{
		id:           string(t.ID),
		ownerID:      string(t.OwnerID),
		kind:         string(t.Kind),
		status:       string(t.Status),
		prompt:       t.Prompt,
		participants: string(parts),
		createdAt:    formatTime(t.CreatedAt),
		updatedAt:    formatTime(t.UpdatedAt),
	}

	if t.Proposal != nil {
		b, err := json.Marshal(t.Proposal)
		if err != nil {
			return threadRow{}, fmt.Errorf("encode proposal: %w", err)
		}
		row.proposal = sql.NullString{String: string(b), Valid: true}
	}
	if t.ExecutedAt != nil {
		row.executedAt = sql.NullString{String: formatTime(*t.ExecutedAt), Valid: true}
	}
	return row, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanThread(sc scanner) (*domain.Thread, error) {
	var row threadRow
	err := sc.Scan(&row.id, &row.ownerID, &row.kind, &row.status, &row.prompt, &row.participants,
		&row.proposal, &row.executedAt, &row.createdAt, &row.updatedAt)
	if err != nil {
		return nil, err
	}

	t := &domain.Thread{
		ID:      domain.ThreadID(row.id),
		OwnerID: domain.UserID(row.ownerID),
		Kind:    domain.ThreadKind(row.kind),
		Status:  domain.ThreadStatus(row.status),
		Prompt:  row.prompt,
	}

	if err := json.Unmarshal([]byte(row.participants), &t.Participants); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	if row.proposal.Valid {
		var p domain.Proposal
		if err := json.Unmarshal([]byte(row.proposal.String), &p); err != nil {
			return nil, fmt.Errorf("decode proposal: %w", err)
		}
		t.Proposal = &p
	}
	if row.executedAt.Valid {
		at, err := time.Parse(timeLayout, row.executedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse executed_at: %w", err)
		}
		t.ExecutedAt = &at
	}
	if t.CreatedAt, err = time.Parse(timeLayout, row.createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, row.updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
