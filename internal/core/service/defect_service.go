package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/buildops/defect-tracker/internal/api/metrics"
	"github.com/buildops/defect-tracker/internal/core/domain"
	"github.com/buildops/defect-tracker/internal/core/ports"
)

// FileStore abstracts attachment storage (local disk in production).
type FileStore interface {
	Save(ctx context.Context, defectID int64, fileName string, content io.Reader) (storedPath string, err error)
	Open(ctx context.Context, storedPath string) (io.ReadCloser, error)
	Remove(ctx context.Context, storedPath string) error
}

// allowedSorts is the allow-list for the sort query parameter. Anything else
// falls back to newest-created-first so the query string can never smuggle an
// arbitrary sort expression into SQL.
var allowedSorts = map[string]struct{}{
	"created_at": {}, "-created_at": {},
	"due_date": {}, "-due_date": {},
	"priority": {}, "-priority": {},
	"status": {}, "-status": {},
}

const defaultSort = "-created_at"
const listPageSize = 25

type DefectService struct {
	repo      ports.DefectRepository
	projects  ports.ProjectRepository
	users     ports.AuthRepository
	files     FileStore
	maxUpload int64
	logger    zerolog.Logger
}

func NewDefectService(
	repo ports.DefectRepository,
	projects ports.ProjectRepository,
	users ports.AuthRepository,
	files FileStore,
	maxUpload int64,
	logger zerolog.Logger,
) *DefectService {
	if maxUpload <= 0 {
		maxUpload = domain.MaxAttachmentBytes
	}
	return &DefectService{
		repo:      repo,
		projects:  projects,
		users:     users,
		files:     files,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// relationship classifies the actor against a defect. Assignee wins over
// creator because it grants the strictly larger set of engineer actions.
func relationship(actor ports.Actor, d *domain.Defect) domain.Relationship {
	if d.AssigneeID != nil && *d.AssigneeID == actor.ID {
		return domain.RelationAssignee
	}
	if d.CreatedByID == actor.ID {
		return domain.RelationCreator
	}
	return domain.RelationNone
}

func actorRef(actor ports.Actor) *int64 {
	if actor.ID == 0 {
		return nil
	}
	id := actor.ID
	return &id
}

// Create reports a new defect. Only managers may set assignee and due date;
// for any other role those fields are silently dropped, matching the policy
// that assignment is a manager decision.
func (s *DefectService) Create(ctx context.Context, in ports.CreateDefectInput) (*domain.Defect, error) {
	if !domain.Allow(in.Actor.Role, domain.RelationNone, domain.ActionCreateDefect) {
		return nil, domain.ErrForbidden
	}

	priority := domain.DefectPriority(in.Priority)
	if in.Priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPriority, in.Priority)
	}

	if _, err := s.projects.GetProject(ctx, in.ProjectID); err != nil {
		return nil, err
	}
	if err := s.checkStage(ctx, in.StageID, in.ProjectID); err != nil {
		return nil, err
	}

	assigneeID := in.AssigneeID
	dueDate := in.DueDate
	if in.Actor.Role != domain.RoleManager {
		assigneeID = nil
		dueDate = nil
	}
	if assigneeID != nil {
		if _, err := s.users.FindByID(ctx, *assigneeID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	defect := &domain.Defect{
		ProjectID:   in.ProjectID,
		StageID:     in.StageID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		Status:      domain.StatusNew,
		AssigneeID:  assigneeID,
		DueDate:     dueDate,
		CreatedByID: in.Actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	toStatus := defect.Status
	entry := &domain.HistoryEntry{
		ActorID:   actorRef(in.Actor),
		Action:    domain.ActionDefectCreated,
		ToStatus:  &toStatus,
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, defect, entry); err != nil {
		s.logger.Error().Err(err).Msg("failed to create defect")
		return nil, err
	}

	metrics.DefectsCreatedTotal.WithLabelValues(string(priority)).Inc()
	s.logger.Info().
		Int64("defect_id", defect.ID).
		Int64("project_id", defect.ProjectID).
		Str("priority", string(priority)).
		Msg("defect created")

	return defect, nil
}

// Get returns the full defect view. Every authenticated role may view any
// defect; row-level scoping applies to the list, not the detail.
func (s *DefectService) Get(ctx context.Context, actor ports.Actor, id int64) (*ports.DefectDetail, error) {
	defect, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.repo.ListComments(ctx, id)
	if err != nil {
		return nil, err
	}
	attachments, err := s.repo.ListAttachments(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}

	rel := relationship(actor, defect)
	canEdit := domain.Allow(actor.Role, rel, domain.ActionEditDefect)
	return &ports.DefectDetail{
		Defect:      defect,
		AllowedNext: defect.Status.AllowedNext(),
		Comments:    comments,
		Attachments: attachments,
		History:     history,
		Permissions: ports.DefectPermissions{
			CanEdit:         canEdit,
			CanComment:      domain.Allow(actor.Role, rel, domain.ActionComment),
			CanAttach:       domain.Allow(actor.Role, rel, domain.ActionAttach),
			CanChangeStatus: domain.Allow(actor.Role, rel, domain.ActionTransition),
			CanManage:       actor.Role == domain.RoleManager,
		},
	}, nil
}

// Update applies a full-field edit and appends a diff-only audit entry. Edits
// that change nothing write no history.
func (s *DefectService) Update(ctx context.Context, in ports.UpdateDefectInput) (*domain.Defect, error) {
	defect, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if !domain.Allow(in.Actor.Role, relationship(in.Actor, defect), domain.ActionEditDefect) {
		return nil, domain.ErrForbidden
	}

	priority := domain.DefectPriority(in.Priority)
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPriority, in.Priority)
	}
	if _, err := s.projects.GetProject(ctx, in.ProjectID); err != nil {
		return nil, err
	}
	if err := s.checkStage(ctx, in.StageID, in.ProjectID); err != nil {
		return nil, err
	}

	assigneeID := in.AssigneeID
	dueDate := in.DueDate
	if in.Actor.Role != domain.RoleManager {
		// Engineers may edit content fields but assignment stays untouched.
		assigneeID = defect.AssigneeID
		dueDate = defect.DueDate
	}
	if assigneeID != nil && (defect.AssigneeID == nil || *defect.AssigneeID != *assigneeID) {
		if _, err := s.users.FindByID(ctx, *assigneeID); err != nil {
			return nil, err
		}
	}

	changes := diffDefect(defect, in.Title, in.Description, priority, assigneeID, dueDate)

	defect.ProjectID = in.ProjectID
	defect.StageID = in.StageID
	defect.Title = in.Title
	defect.Description = in.Description
	defect.Priority = priority
	defect.AssigneeID = assigneeID
	defect.DueDate = dueDate
	defect.UpdatedAt = time.Now().UTC()

	var entry *domain.HistoryEntry
	if len(changes) > 0 {
		entry = &domain.HistoryEntry{
			DefectID:  defect.ID,
			ActorID:   actorRef(in.Actor),
			Action:    domain.ActionFieldsUpdated,
			Changes:   changes,
			CreatedAt: defect.UpdatedAt,
		}
	}

	if err := s.repo.Update(ctx, defect, entry); err != nil {
		s.logger.Error().Err(err).Int64("defect_id", defect.ID).Msg("failed to update defect")
		return nil, err
	}
	return defect, nil
}

// diffDefect builds the audit changes map over the tracked fields, recording
// only fields whose value actually differs.
func diffDefect(old *domain.Defect, title, description string, priority domain.DefectPriority, assigneeID *int64, dueDate *time.Time) map[string]domain.FieldChange {
	changes := make(map[string]domain.FieldChange)
	if old.Title != title {
		changes["title"] = domain.FieldChange{From: old.Title, To: title}
	}
	if old.Description != description {
		changes["description"] = domain.FieldChange{From: old.Description, To: description}
	}
	if old.Priority != priority {
		changes["priority"] = domain.FieldChange{From: string(old.Priority), To: string(priority)}
	}
	if !int64PtrEqual(old.AssigneeID, assigneeID) {
		changes["assignee_id"] = domain.FieldChange{From: int64PtrValue(old.AssigneeID), To: int64PtrValue(assigneeID)}
	}
	if !datePtrEqual(old.DueDate, dueDate) {
		changes["due_date"] = domain.FieldChange{From: dateValue(old.DueDate), To: dateValue(dueDate)}
	}
	return changes
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func int64PtrValue(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func datePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func dateValue(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.Format("2006-01-02")
}

// ChangeStatus runs the state machine. Rules, in order: the actor must be
// allowed to transition this defect at all; a target equal to the current
// status is a silent no-op; the target must be in the allowed set; terminal
// targets require a manager. Rejections mutate nothing and log nothing to
// history.
func (s *DefectService) ChangeStatus(ctx context.Context, in ports.ChangeStatusInput) (*domain.Defect, error) {
	defect, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if !domain.Allow(in.Actor.Role, relationship(in.Actor, defect), domain.ActionTransition) {
		metrics.TransitionsRejectedTotal.WithLabelValues("forbidden").Inc()
		return nil, domain.ErrForbidden
	}

	target := domain.DefectStatus(in.Target)
	if !target.Valid() {
		metrics.TransitionsRejectedTotal.WithLabelValues("unknown_status").Inc()
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, in.Target)
	}

	if target == defect.Status {
		return defect, nil
	}

	if !defect.Status.CanTransitionTo(target) {
		metrics.TransitionsRejectedTotal.WithLabelValues("invalid_transition").Inc()
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, defect.Status, target)
	}
	if target.IsTerminal() && in.Actor.Role != domain.RoleManager {
		metrics.TransitionsRejectedTotal.WithLabelValues("terminal_requires_manager").Inc()
		return nil, fmt.Errorf("%w: only a manager may close or cancel", domain.ErrForbidden)
	}

	now := time.Now().UTC()
	from := defect.Status
	to := target
	entry := &domain.HistoryEntry{
		DefectID:   defect.ID,
		ActorID:    actorRef(in.Actor),
		Action:     domain.ActionStatusChanged,
		FromStatus: &from,
		ToStatus:   &to,
		CreatedAt:  now,
	}
	var comment *domain.Comment
	if in.Comment != "" {
		comment = &domain.Comment{
			DefectID:  defect.ID,
			AuthorID:  in.Actor.ID,
			Body:      in.Comment,
			CreatedAt: now,
		}
	}

	if err := s.repo.UpdateStatus(ctx, defect.ID, target, entry, comment); err != nil {
		s.logger.Error().Err(err).Int64("defect_id", defect.ID).Msg("failed to change status")
		return nil, err
	}

	metrics.StatusTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	s.logger.Info().
		Int64("defect_id", defect.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("actor", in.Actor.Username).
		Msg("status changed")

	defect.Status = target
	defect.UpdatedAt = now
	return defect, nil
}

func (s *DefectService) AddComment(ctx context.Context, in ports.AddCommentInput) (*domain.Comment, error) {
	defect, err := s.repo.GetByID(ctx, in.DefectID)
	if err != nil {
		return nil, err
	}
	if !domain.Allow(in.Actor.Role, relationship(in.Actor, defect), domain.ActionComment) {
		return nil, domain.ErrForbidden
	}

	now := time.Now().UTC()
	comment := &domain.Comment{
		DefectID:       in.DefectID,
		AuthorID:       in.Actor.ID,
		AuthorUsername: in.Actor.Username,
		Body:           in.Body,
		CreatedAt:      now,
	}
	entry := &domain.HistoryEntry{
		DefectID:  in.DefectID,
		ActorID:   actorRef(in.Actor),
		Action:    domain.ActionCommentAdded,
		CreatedAt: now,
	}
	if err := s.repo.AddComment(ctx, comment, entry); err != nil {
		return nil, err
	}
	return comment, nil
}

// AddAttachment stores the upload and records it. The size ceiling is
// enforced before any byte reaches disk; a failed metadata write removes the
// stored file again.
func (s *DefectService) AddAttachment(ctx context.Context, in ports.AddAttachmentInput) (*domain.Attachment, error) {
	defect, err := s.repo.GetByID(ctx, in.DefectID)
	if err != nil {
		return nil, err
	}
	if !domain.Allow(in.Actor.Role, relationship(in.Actor, defect), domain.ActionAttach) {
		return nil, domain.ErrForbidden
	}
	if in.Size > s.maxUpload {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrAttachmentTooLarge, in.Size, s.maxUpload)
	}

	storedPath, err := s.files.Save(ctx, in.DefectID, in.FileName, io.LimitReader(in.Content, s.maxUpload))
	if err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	now := time.Now().UTC()
	attachment := &domain.Attachment{
		DefectID:         in.DefectID,
		UploadedByID:     in.Actor.ID,
		UploaderUsername: in.Actor.Username,
		FileName:         in.FileName,
		StoredPath:       storedPath,
		SizeBytes:        in.Size,
		CreatedAt:        now,
	}
	entry := &domain.HistoryEntry{
		DefectID:  in.DefectID,
		ActorID:   actorRef(in.Actor),
		Action:    domain.ActionAttachmentAdded,
		CreatedAt: now,
	}
	if err := s.repo.AddAttachment(ctx, attachment, entry); err != nil {
		if rmErr := s.files.Remove(ctx, storedPath); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("path", storedPath).Msg("failed to clean up orphaned attachment file")
		}
		return nil, err
	}
	return attachment, nil
}

func (s *DefectService) OpenAttachment(ctx context.Context, actor ports.Actor, defectID, attachmentID int64) (*domain.Attachment, io.ReadCloser, error) {
	if !domain.Allow(actor.Role, domain.RelationNone, domain.ActionView) {
		return nil, nil, domain.ErrForbidden
	}
	attachment, err := s.repo.GetAttachment(ctx, defectID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Open(ctx, attachment.StoredPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open attachment: %w", err)
	}
	return attachment, rc, nil
}

// List returns one page of defects. Engineers are row-scoped to defects they
// created or are assigned before any query-string filter applies.
func (s *DefectService) List(ctx context.Context, in ports.ListDefectsInput) (*ports.ListDefectsResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	sort := in.Sort
	if _, ok := allowedSorts[sort]; !ok {
		sort = defaultSort
	}

	filter := ports.DefectFilter{
		Status:    in.Status,
		Priority:  in.Priority,
		ProjectID: in.ProjectID,
		Search:    in.Search,
		Sort:      sort,
		Page:      page,
		Limit:     listPageSize,
	}
	if in.Actor.Role == domain.RoleEngineer {
		filter.ActorID = in.Actor.ID
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(listPageSize)))
	if totalPages < 1 {
		totalPages = 1
	}
	return &ports.ListDefectsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PerPage:    listPageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *DefectService) checkStage(ctx context.Context, stageID *int64, projectID int64) error {
	if stageID == nil {
		return nil
	}
	stage, err := s.projects.GetStage(ctx, *stageID)
	if err != nil {
		return err
	}
	if stage.ProjectID != projectID {
		return domain.ErrStageMismatch
	}
	return nil
}
