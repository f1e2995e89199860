package ports

import (
	"context"
	"io"
	"time"

	"github.com/buildops/defect-tracker/internal/core/domain"
)

// Actor identifies the authenticated user a request runs as. Role is taken
// from verified token claims, never from request payloads.
type Actor struct {
	ID       int64
	Username string
	Role     string
}

// CreateDefectInput carries all data needed to report a new defect.
// AssigneeID and DueDate are silently dropped unless the actor is a manager.
type CreateDefectInput struct {
	Actor       Actor
	ProjectID   int64
	StageID     *int64
	Title       string
	Description string
	Priority    string
	AssigneeID  *int64
	DueDate     *time.Time
}

// UpdateDefectInput carries a full-field edit. Non-managers keep the stored
// assignee and due date regardless of what they submit.
type UpdateDefectInput struct {
	Actor       Actor
	ID          int64
	ProjectID   int64
	StageID     *int64
	Title       string
	Description string
	Priority    string
	AssigneeID  *int64
	DueDate     *time.Time
}

// ChangeStatusInput requests a state-machine transition. Comment, when
// non-empty, is stored as a separate defect comment alongside the transition.
type ChangeStatusInput struct {
	Actor   Actor
	ID      int64
	Target  string
	Comment string
}

type AddCommentInput struct {
	Actor    Actor
	DefectID int64
	Body     string
}

// AddAttachmentInput carries an upload. Size is the declared part size and is
// checked against the configured ceiling before anything touches disk.
type AddAttachmentInput struct {
	Actor    Actor
	DefectID int64
	FileName string
	Size     int64
	Content  io.Reader
}

// ListDefectsInput mirrors the list endpoint's query parameters.
type ListDefectsInput struct {
	Actor     Actor
	Status    string
	Priority  string
	ProjectID int64
	Search    string
	Sort      string
	Page      int
}

type ListDefectsResult struct {
	Items      []*domain.Defect
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

// DefectPermissions tells the client which controls to render. The server
// re-validates on every mutation regardless.
type DefectPermissions struct {
	CanEdit         bool `json:"can_edit"`
	CanComment      bool `json:"can_comment"`
	CanAttach       bool `json:"can_attach"`
	CanChangeStatus bool `json:"can_change_status"`
	CanManage       bool `json:"can_manage"`
}

// DefectDetail is the full defect view: the aggregate plus its satellite
// rows and the statuses reachable from the current one.
type DefectDetail struct {
	Defect      *domain.Defect
	AllowedNext []domain.DefectStatus
	Comments    []*domain.Comment
	Attachments []*domain.Attachment
	History     []*domain.HistoryEntry
	Permissions DefectPermissions
}

// DefectService defines the defect use cases.
type DefectService interface {
	Create(ctx context.Context, in CreateDefectInput) (*domain.Defect, error)
	Get(ctx context.Context, actor Actor, id int64) (*DefectDetail, error)
	Update(ctx context.Context, in UpdateDefectInput) (*domain.Defect, error)
	List(ctx context.Context, in ListDefectsInput) (*ListDefectsResult, error)
	ChangeStatus(ctx context.Context, in ChangeStatusInput) (*domain.Defect, error)
	AddComment(ctx context.Context, in AddCommentInput) (*domain.Comment, error)
	AddAttachment(ctx context.Context, in AddAttachmentInput) (*domain.Attachment, error)
	// OpenAttachment returns the attachment metadata and a reader over the
	// stored file. The caller closes the reader.
	OpenAttachment(ctx context.Context, actor Actor, defectID, attachmentID int64) (*domain.Attachment, io.ReadCloser, error)
}
