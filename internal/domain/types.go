package domain

import "time"

type ThreadID string
type UserID string

type Timestamp = time.Time

// ThreadKind decides which agent plans a thread. Fixed at creation.
type ThreadKind string

const (
	KindSchedule ThreadKind = "schedule"
	KindEmail    ThreadKind = "email"
)

func (k ThreadKind) Valid() bool {
	return k == KindSchedule || k == KindEmail
}

type ThreadStatus string

const (
	StatusDraft     ThreadStatus = "draft"
	StatusPlanning  ThreadStatus = "planning"
	StatusProposed  ThreadStatus = "proposed"
	StatusApproved  ThreadStatus = "approved"
	StatusDone      ThreadStatus = "done"
	StatusCancelled ThreadStatus = "cancelled"
)
