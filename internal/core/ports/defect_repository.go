package ports

import (
	"context"

	"github.com/buildops/defect-tracker/internal/core/domain"
)

// DefectFilter carries the shared query-shaping parameters used by the list
// view and both export endpoints. All filters are optional; zero values mean
// "no filter". Sort is validated by the service against the allow-list before
// it reaches the repository.
type DefectFilter struct {
	ActorID   int64 // >0: restrict rows to defects the actor created or is assigned
	Status    string
	Priority  string
	ProjectID int64
	Search    string // case-insensitive substring match on title OR description
	Sort      string
	Page      int // 1-based; ignored when Limit == 0
	Limit     int // 0 = no pagination (exports)
}

// DefectRepository defines persistence operations for defects and their
// comments, attachments and audit trail. Every mutating method that takes a
// *domain.HistoryEntry persists the primary write and the audit entry in one
// transaction; a failure rolls back both.
type DefectRepository interface {
	Create(ctx context.Context, d *domain.Defect, entry *domain.HistoryEntry) error
	GetByID(ctx context.Context, id int64) (*domain.Defect, error)
	Update(ctx context.Context, d *domain.Defect, entry *domain.HistoryEntry) error
	// UpdateStatus sets the defect status and appends the transition entry.
	// A non-nil comment is inserted in the same transaction.
	UpdateStatus(ctx context.Context, id int64, to domain.DefectStatus, entry *domain.HistoryEntry, comment *domain.Comment) error
	List(ctx context.Context, f DefectFilter) ([]*domain.Defect, int64, error)
	CountByStatus(ctx context.Context) (map[domain.DefectStatus]int64, error)

	AddComment(ctx context.Context, c *domain.Comment, entry *domain.HistoryEntry) error
	AddAttachment(ctx context.Context, a *domain.Attachment, entry *domain.HistoryEntry) error
	GetAttachment(ctx context.Context, defectID, attachmentID int64) (*domain.Attachment, error)
	ListComments(ctx context.Context, defectID int64) ([]*domain.Comment, error)
	ListAttachments(ctx context.Context, defectID int64) ([]*domain.Attachment, error)
	ListHistory(ctx context.Context, defectID int64) ([]*domain.HistoryEntry, error)
}
