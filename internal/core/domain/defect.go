package domain

import (
	"errors"
	"time"
)

// DefectStatus represents the lifecycle state of a defect.
type DefectStatus string

const (
	StatusNew        DefectStatus = "new"
	StatusInProgress DefectStatus = "in_progress"
	StatusInReview   DefectStatus = "in_review"
	StatusClosed     DefectStatus = "closed"
	StatusCancelled  DefectStatus = "cancelled"
)

// AllStatuses lists every status in display order. Dashboards and exports
// iterate this slice so rows come out in a stable order.
var AllStatuses = []DefectStatus{
	StatusNew,
	StatusInProgress,
	StatusInReview,
	StatusClosed,
	StatusCancelled,
}

// statusTransitions defines the allowed state machine transitions.
// Terminal states (closed, cancelled) have no outgoing edges.
var statusTransitions = map[DefectStatus][]DefectStatus{
	StatusNew:        {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusInReview, StatusCancelled},
	StatusInReview:   {StatusClosed, StatusInProgress, StatusCancelled},
	StatusClosed:     {},
	StatusCancelled:  {},
}

var statusLabels = map[DefectStatus]string{
	StatusNew:        "New",
	StatusInProgress: "In progress",
	StatusInReview:   "In review",
	StatusClosed:     "Closed",
	StatusCancelled:  "Cancelled",
}

// Valid reports whether s is one of the five known statuses.
func (s DefectStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// AllowedNext returns the set of statuses reachable from s.
// Unknown statuses have no outgoing transitions.
func (s DefectStatus) AllowedNext() []DefectStatus {
	return statusTransitions[s]
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s DefectStatus) CanTransitionTo(next DefectStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is a valid status with no outgoing
// transitions. Role checks treat terminal targets as manager-only, so a
// future terminal state automatically inherits that rule.
func (s DefectStatus) IsTerminal() bool {
	return s.Valid() && len(statusTransitions[s]) == 0
}

// Label returns the display label used in exports and list views.
func (s DefectStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// DefectPriority represents how urgent a defect is.
type DefectPriority string

const (
	PriorityLow      DefectPriority = "low"
	PriorityMedium   DefectPriority = "medium"
	PriorityHigh     DefectPriority = "high"
	PriorityCritical DefectPriority = "critical"
)

var priorityLabels = map[DefectPriority]string{
	PriorityLow:      "Low",
	PriorityMedium:   "Medium",
	PriorityHigh:     "High",
	PriorityCritical: "Critical",
}

// Valid reports whether p is one of the known priorities.
func (p DefectPriority) Valid() bool {
	_, ok := priorityLabels[p]
	return ok
}

// Label returns the display label.
func (p DefectPriority) Label() string {
	if l, ok := priorityLabels[p]; ok {
		return l
	}
	return string(p)
}

var (
	ErrDefectNotFound     = errors.New("defect not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidPriority    = errors.New("unknown priority")
	ErrForbidden          = errors.New("access forbidden")
	ErrAttachmentTooLarge = errors.New("attachment exceeds size limit")
	ErrStageMismatch      = errors.New("stage does not belong to project")
)

// Defect is the core aggregate root. The *Name/*Username fields are
// denormalized join results populated by the repository for list, detail
// and export views.
type Defect struct {
	ID          int64          `json:"id"`
	ProjectID   int64          `json:"project_id"`
	StageID     *int64         `json:"stage_id,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    DefectPriority `json:"priority"`
	Status      DefectStatus   `json:"status"`
	AssigneeID  *int64         `json:"assignee_id,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	CreatedByID int64          `json:"created_by_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	ProjectName       string `json:"project_name"`
	StageName         string `json:"stage_name,omitempty"`
	AssigneeUsername  string `json:"assignee_username,omitempty"`
	CreatedByUsername string `json:"created_by_username"`
}

// IsOverdue reports whether the defect has a due date in the past and is
// still open.
func (d *Defect) IsOverdue(today time.Time) bool {
	if d.DueDate == nil || d.Status.IsTerminal() {
		return false
	}
	y, m, day := today.Date()
	midnight := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return d.DueDate.Before(midnight)
}

// Comment is a free-text note on a defect, ordered oldest-first.
type Comment struct {
	ID             int64     `json:"id"`
	DefectID       int64     `json:"defect_id"`
	AuthorID       int64     `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

// Attachment is a file uploaded against a defect, ordered newest-first.
type Attachment struct {
	ID               int64     `json:"id"`
	DefectID         int64     `json:"defect_id"`
	UploadedByID     int64     `json:"uploaded_by_id"`
	UploaderUsername string    `json:"uploader_username"`
	FileName         string    `json:"file_name"`
	StoredPath       string    `json:"-"`
	SizeBytes        int64     `json:"size_bytes"`
	CreatedAt        time.Time `json:"created_at"`
}

// MaxAttachmentBytes is the hard ceiling for a single upload (10 MB).
const MaxAttachmentBytes int64 = 10 * 1024 * 1024
