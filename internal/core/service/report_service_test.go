package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/buildops/defect-tracker/internal/core/domain"
	"github.com/buildops/defect-tracker/internal/core/ports"
)

func TestDashboard_ZeroFilledInDisplayOrder(t *testing.T) {
	repo := newStubDefectRepo()
	seedDefect(repo, domain.StatusNew, manager.ID, nil)
	seedDefect(repo, domain.StatusNew, manager.ID, nil)
	seedDefect(repo, domain.StatusClosed, manager.ID, nil)
	svc := NewReportService(repo, zerolog.Nop())

	res, err := svc.Dashboard(context.Background(), observer)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("expected total 3, got %d", res.Total)
	}
	if len(res.ByStatus) != len(domain.AllStatuses) {
		t.Fatalf("expected a row per status, got %d", len(res.ByStatus))
	}
	for i, row := range res.ByStatus {
		if row.Status != domain.AllStatuses[i] {
			t.Errorf("row %d out of display order: %s", i, row.Status)
		}
	}
	if res.ByStatus[0].Count != 2 || res.ByStatus[3].Count != 1 || res.ByStatus[1].Count != 0 {
		t.Errorf("unexpected counts: %+v", res.ByStatus)
	}
}

func TestDashboard_ObserverAllowed(t *testing.T) {
	svc := NewReportService(newStubDefectRepo(), zerolog.Nop())
	if _, err := svc.Dashboard(context.Background(), observer); err != nil {
		t.Fatalf("observer dashboard: %v", err)
	}
}

func TestExport_EngineerForbidden(t *testing.T) {
	svc := NewReportService(newStubDefectRepo(), zerolog.Nop())
	if _, err := svc.Export(context.Background(), engineer, ports.ReportFilter{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestExport_UnpaginatedAndUnscoped(t *testing.T) {
	repo := newStubDefectRepo()
	for i := 0; i < 30; i++ {
		seedDefect(repo, domain.StatusNew, manager.ID, nil)
	}
	svc := NewReportService(repo, zerolog.Nop())

	rows, err := svc.Export(context.Background(), observer, ports.ReportFilter{Sort: "bogus"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(rows) != 30 {
		t.Fatalf("export must not paginate, got %d rows", len(rows))
	}
	if repo.lastFilter.ActorID != 0 {
		t.Error("export must not be row-scoped")
	}
	if repo.lastFilter.Sort != "-created_at" {
		t.Errorf("unrecognized sort must fall back to -created_at, got %q", repo.lastFilter.Sort)
	}
}
