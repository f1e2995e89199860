package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/buildops/defect-tracker/internal/core/domain"
	"github.com/buildops/defect-tracker/internal/core/ports"
)

// ReportService implements the read-only reporting use cases: the
// count-by-status dashboard and the filtered row set both exports render.
type ReportService struct {
	repo   ports.DefectRepository
	logger zerolog.Logger
}

func NewReportService(repo ports.DefectRepository, logger zerolog.Logger) *ReportService {
	return &ReportService{repo: repo, logger: logger}
}

// Dashboard returns defect counts per status, zero-filled in display order.
func (s *ReportService) Dashboard(ctx context.Context, actor ports.Actor) (*ports.DashboardResult, error) {
	if !domain.Allow(actor.Role, domain.RelationNone, domain.ActionViewReports) {
		return nil, domain.ErrForbidden
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	result := &ports.DashboardResult{ByStatus: make([]ports.StatusCount, 0, len(domain.AllStatuses))}
	for _, status := range domain.AllStatuses {
		n := counts[status]
		result.ByStatus = append(result.ByStatus, ports.StatusCount{
			Status: status,
			Label:  status.Label(),
			Count:  n,
		})
		result.Total += n
	}
	return result, nil
}

// Export returns the full filtered row set, shaped exactly like the list
// view's query but without pagination or engineer row scoping.
func (s *ReportService) Export(ctx context.Context, actor ports.Actor, f ports.ReportFilter) ([]*domain.Defect, error) {
	if !domain.Allow(actor.Role, domain.RelationNone, domain.ActionViewReports) {
		return nil, domain.ErrForbidden
	}

	sort := f.Sort
	if _, ok := allowedSorts[sort]; !ok {
		sort = defaultSort
	}

	items, _, err := s.repo.List(ctx, ports.DefectFilter{
		Status:    f.Status,
		Priority:  f.Priority,
		ProjectID: f.ProjectID,
		Search:    f.Search,
		Sort:      sort,
	})
	return items, err
}
