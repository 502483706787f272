package domain

type AuditAction string

const (
	AuditCreated          AuditAction = "created"
	AuditPlanningComplete AuditAction = "planning_complete"
	AuditExecuted         AuditAction = "executed"
	AuditCancelled        AuditAction = "cancelled"
)

// AuditEntry is one append-only record of something that happened to a thread.
type AuditEntry struct {
	ThreadID ThreadID       `json:"thread_id"`
	Action   AuditAction    `json:"action"`
	UserID   UserID         `json:"user_id,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
	At       Timestamp      `json:"at"`
}
