package ports

import (
	"context"

	"github.com/buildops/defect-tracker/internal/core/domain"
)

// ReportFilter is the export variant of DefectFilter: same shaping, no
// pagination and no row-level actor scoping (reports are manager/observer
// territory and observers see the unrestricted row set).
type ReportFilter struct {
	Status    string
	Priority  string
	ProjectID int64
	Search    string
	Sort      string
}

// StatusCount is one dashboard row.
type StatusCount struct {
	Status domain.DefectStatus `json:"status"`
	Label  string              `json:"label"`
	Count  int64               `json:"count"`
}

// DashboardResult aggregates defect counts per status, zero-filled so every
// status appears even when no defect has it.
type DashboardResult struct {
	ByStatus []StatusCount `json:"by_status"`
	Total    int64         `json:"total"`
}

// ReportService defines the read-only reporting use cases.
type ReportService interface {
	Dashboard(ctx context.Context, actor Actor) (*DashboardResult, error)
	// Export returns the filtered, sorted defect rows both export formats
	// render from.
	Export(ctx context.Context, actor Actor, f ReportFilter) ([]*domain.Defect, error)
}
