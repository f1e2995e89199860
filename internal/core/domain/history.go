package domain

import "time"

// Audit action labels. Every mutation on a defect appends exactly one
// history entry carrying one of these labels.
const (
	ActionDefectCreated   = "defect created"
	ActionFieldsUpdated   = "defect fields updated"
	ActionStatusChanged   = "status changed"
	ActionCommentAdded    = "comment added"
	ActionAttachmentAdded = "attachment added"
)

// FieldChange records one field's before/after values in an audit entry.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// HistoryEntry is one row of the append-only audit trail. ActorID is nil for
// system-triggered actions. Entries are never updated or deleted.
type HistoryEntry struct {
	ID            int64                  `json:"id"`
	DefectID      int64                  `json:"defect_id"`
	ActorID       *int64                 `json:"actor_id,omitempty"`
	ActorUsername string                 `json:"actor_username,omitempty"`
	Action        string                 `json:"action"`
	FromStatus    *DefectStatus          `json:"from_status,omitempty"`
	ToStatus      *DefectStatus          `json:"to_status,omitempty"`
	Changes       map[string]FieldChange `json:"changes,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}
