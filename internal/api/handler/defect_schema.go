package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type createDefectRequest struct {
	ProjectID   int64   `json:"project_id"  validate:"required,gt=0"`
	StageID     *int64  `json:"stage_id"    validate:"omitempty,gt=0"`
	Title       string  `json:"title"       validate:"required,max=200"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"    validate:"omitempty,oneof=low medium high critical"`
	AssigneeID  *int64  `json:"assignee_id" validate:"omitempty,gt=0"`
	DueDate     *string `json:"due_date"    validate:"omitempty,datetime=2006-01-02"`
}

type updateDefectRequest struct {
	ProjectID   int64   `json:"project_id"  validate:"required,gt=0"`
	StageID     *int64  `json:"stage_id"    validate:"omitempty,gt=0"`
	Title       string  `json:"title"       validate:"required,max=200"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"    validate:"required,oneof=low medium high critical"`
	AssigneeID  *int64  `json:"assignee_id" validate:"omitempty,gt=0"`
	DueDate     *string `json:"due_date"    validate:"omitempty,datetime=2006-01-02"`
}

type changeStatusRequest struct {
	Status  string `json:"status"  validate:"required"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

type addCommentRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// --- Response types ---
//
// These are intentionally separate from ports/domain types so the JSON
// contract is not coupled to internal service changes.

type defectResponse struct {
	ID            int64      `json:"id"`
	ProjectID     int64      `json:"project_id"`
	ProjectName   string     `json:"project_name"`
	StageID       *int64     `json:"stage_id,omitempty"`
	StageName     string     `json:"stage_name,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Priority      string     `json:"priority"`
	PriorityLabel string     `json:"priority_label"`
	Status        string     `json:"status"`
	StatusLabel   string     `json:"status_label"`
	AssigneeID    *int64     `json:"assignee_id,omitempty"`
	Assignee      string     `json:"assignee,omitempty"`
	DueDate       *string    `json:"due_date,omitempty"`
	Overdue       bool       `json:"overdue"`
	CreatedByID   int64      `json:"created_by_id"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type commentResponse struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type attachmentResponse struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"file_name"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
	URL        string    `json:"url"`
}

type fieldChangeResponse struct {
	From any `json:"from"`
	To   any `json:"to"`
}

type historyEntryResponse struct {
	ID         int64                          `json:"id"`
	ActorID    *int64                         `json:"actor_id,omitempty"`
	Actor      string                         `json:"actor,omitempty"`
	Action     string                         `json:"action"`
	FromStatus string                         `json:"from_status,omitempty"`
	ToStatus   string                         `json:"to_status,omitempty"`
	Changes    map[string]fieldChangeResponse `json:"changes,omitempty"`
	CreatedAt  time.Time                      `json:"created_at"`
}

type permissionsResponse struct {
	CanEdit         bool `json:"can_edit"`
	CanComment      bool `json:"can_comment"`
	CanAttach       bool `json:"can_attach"`
	CanChangeStatus bool `json:"can_change_status"`
	CanManage       bool `json:"can_manage"`
}

type defectDetailResponse struct {
	Defect      defectResponse         `json:"defect"`
	AllowedNext []string               `json:"allowed_next"`
	Comments    []commentResponse      `json:"comments"`
	Attachments []attachmentResponse   `json:"attachments"`
	History     []historyEntryResponse `json:"history"`
	Permissions permissionsResponse    `json:"permissions"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

type listDefectsResponse struct {
	Data       []defectResponse   `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}
