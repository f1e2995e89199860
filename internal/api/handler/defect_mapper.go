package handler

import (
	"fmt"
	"time"

	"github.com/buildops/defect-tracker/internal/core/domain"
	"github.com/buildops/defect-tracker/internal/core/ports"
)

const dateLayout = "2006-01-02"

// --- Request → Service input ---

func toCreateInput(req createDefectRequest, actor ports.Actor) (ports.CreateDefectInput, error) {
	due, err := parseDate(req.DueDate)
	if err != nil {
		return ports.CreateDefectInput{}, err
	}
	return ports.CreateDefectInput{
		Actor:       actor,
		ProjectID:   req.ProjectID,
		StageID:     req.StageID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     due,
	}, nil
}

func toUpdateInput(req updateDefectRequest, actor ports.Actor, id int64) (ports.UpdateDefectInput, error) {
	due, err := parseDate(req.DueDate)
	if err != nil {
		return ports.UpdateDefectInput{}, err
	}
	return ports.UpdateDefectInput{
		Actor:       actor,
		ID:          id,
		ProjectID:   req.ProjectID,
		StageID:     req.StageID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     due,
	}, nil
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", *s)
	}
	return &t, nil
}

// --- Service result → HTTP response ---

func toDefectResponse(d *domain.Defect) defectResponse {
	var due *string
	if d.DueDate != nil {
		s := d.DueDate.Format(dateLayout)
		due = &s
	}
	return defectResponse{
		ID:            d.ID,
		ProjectID:     d.ProjectID,
		ProjectName:   d.ProjectName,
		StageID:       d.StageID,
		StageName:     d.StageName,
		Title:         d.Title,
		Description:   d.Description,
		Priority:      string(d.Priority),
		PriorityLabel: d.Priority.Label(),
		Status:        string(d.Status),
		StatusLabel:   d.Status.Label(),
		AssigneeID:    d.AssigneeID,
		Assignee:      d.AssigneeUsername,
		DueDate:       due,
		Overdue:       d.IsOverdue(time.Now().UTC()),
		CreatedByID:   d.CreatedByID,
		CreatedBy:     d.CreatedByUsername,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

func toDetailResponse(detail *ports.DefectDetail) defectDetailResponse {
	allowed := make([]string, len(detail.AllowedNext))
	for i, s := range detail.AllowedNext {
		allowed[i] = string(s)
	}
	comments := make([]commentResponse, len(detail.Comments))
	for i, cm := range detail.Comments {
		comments[i] = toCommentResponse(cm)
	}
	attachments := make([]attachmentResponse, len(detail.Attachments))
	for i, a := range detail.Attachments {
		attachments[i] = toAttachmentResponse(a)
	}
	history := make([]historyEntryResponse, len(detail.History))
	for i, h := range detail.History {
		history[i] = toHistoryResponse(h)
	}
	return defectDetailResponse{
		Defect:      toDefectResponse(detail.Defect),
		AllowedNext: allowed,
		Comments:    comments,
		Attachments: attachments,
		History:     history,
		Permissions: permissionsResponse{
			CanEdit:         detail.Permissions.CanEdit,
			CanComment:      detail.Permissions.CanComment,
			CanAttach:       detail.Permissions.CanAttach,
			CanChangeStatus: detail.Permissions.CanChangeStatus,
			CanManage:       detail.Permissions.CanManage,
		},
	}
}

func toCommentResponse(cm *domain.Comment) commentResponse {
	return commentResponse{
		ID:        cm.ID,
		AuthorID:  cm.AuthorID,
		Author:    cm.AuthorUsername,
		Body:      cm.Body,
		CreatedAt: cm.CreatedAt.UTC(),
	}
}

func toAttachmentResponse(a *domain.Attachment) attachmentResponse {
	return attachmentResponse{
		ID:         a.ID,
		FileName:   a.FileName,
		SizeBytes:  a.SizeBytes,
		UploadedBy: a.UploaderUsername,
		CreatedAt:  a.CreatedAt.UTC(),
		URL:        fmt.Sprintf("/v1/defects/%d/attachments/%d", a.DefectID, a.ID),
	}
}

func toHistoryResponse(h *domain.HistoryEntry) historyEntryResponse {
	resp := historyEntryResponse{
		ID:        h.ID,
		ActorID:   h.ActorID,
		Actor:     h.ActorUsername,
		Action:    h.Action,
		CreatedAt: h.CreatedAt.UTC(),
	}
	if h.FromStatus != nil {
		resp.FromStatus = string(*h.FromStatus)
	}
	if h.ToStatus != nil {
		resp.ToStatus = string(*h.ToStatus)
	}
	if len(h.Changes) > 0 {
		resp.Changes = make(map[string]fieldChangeResponse, len(h.Changes))
		for field, ch := range h.Changes {
			resp.Changes[field] = fieldChangeResponse{From: ch.From, To: ch.To}
		}
	}
	return resp
}

func toListResponse(r *ports.ListDefectsResult) listDefectsResponse {
	items := make([]defectResponse, len(r.Items))
	for i, d := range r.Items {
		items[i] = toDefectResponse(d)
	}
	return listDefectsResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			PerPage:    r.PerPage,
			TotalPages: r.TotalPages,
		},
	}
}
