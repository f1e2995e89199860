package handler

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/buildops/defect-tracker/internal/core/domain"
	"github.com/buildops/defect-tracker/internal/core/ports"
)

type stubReportService struct {
	dashboardFn func(ctx context.Context, actor ports.Actor) (*ports.DashboardResult, error)
	exportFn    func(ctx context.Context, actor ports.Actor, f ports.ReportFilter) ([]*domain.Defect, error)
}

func (s *stubReportService) Dashboard(ctx context.Context, actor ports.Actor) (*ports.DashboardResult, error) {
	return s.dashboardFn(ctx, actor)
}

func (s *stubReportService) Export(ctx context.Context, actor ports.Actor, f ports.ReportFilter) ([]*domain.Defect, error) {
	return s.exportFn(ctx, actor, f)
}

func asObserver(c echo.Context) {
	c.Set("user_id", int64(3))
	c.Set("username", "olga")
	c.Set("role", "observer")
}

func TestReportHandler_ExportCSV(t *testing.T) {
	e := newTestEcho()
	stub := &stubReportService{
		exportFn: func(ctx context.Context, actor ports.Actor, f ports.ReportFilter) ([]*domain.Defect, error) {
			if actor.Role != "observer" {
				t.Fatalf("unexpected actor role %q", actor.Role)
			}
			if f.Status != "new" {
				t.Fatalf("status filter not forwarded: %+v", f)
			}
			if f.ProjectID != 2 {
				t.Fatalf("project=2 was ignored, service saw ProjectID=%d", f.ProjectID)
			}
			return []*domain.Defect{{
				ID:          1,
				Title:       "Crack in wall",
				ProjectName: "North Tower",
				Status:      domain.StatusNew,
				Priority:    domain.PriorityHigh,
				CreatedAt:   time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC),
			}}, nil
		},
	}
	handler := NewReportHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/export/csv?status=new&project=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	asObserver(c)

	if err := handler.ExportCSV(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	cd := rec.Header().Get(echo.HeaderContentDisposition)
	if !strings.Contains(cd, "defects_") || !strings.Contains(cd, ".csv") {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv body: %v", err)
	}
	if len(records) != 2 || records[1][1] != "Crack in wall" {
		t.Fatalf("unexpected csv payload: %v", records)
	}
}

func TestReportHandler_ExportXLSX(t *testing.T) {
	e := newTestEcho()
	stub := &stubReportService{
		exportFn: func(ctx context.Context, actor ports.Actor, f ports.ReportFilter) ([]*domain.Defect, error) {
			return nil, nil
		},
	}
	handler := NewReportHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/export/xlsx", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	asObserver(c)

	if err := handler.ExportXLSX(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty workbook body")
	}
}

func TestReportHandler_Dashboard(t *testing.T) {
	e := newTestEcho()
	stub := &stubReportService{
		dashboardFn: func(ctx context.Context, actor ports.Actor) (*ports.DashboardResult, error) {
			return &ports.DashboardResult{
				ByStatus: []ports.StatusCount{{Status: domain.StatusNew, Label: "New", Count: 2}},
				Total:    2,
			}, nil
		},
	}
	handler := NewReportHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	asObserver(c)

	if err := handler.Dashboard(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"total":2`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestReportHandler_MissingClaims(t *testing.T) {
	e := newTestEcho()
	stub := &stubReportService{
		exportFn: func(ctx context.Context, actor ports.Actor, f ports.ReportFilter) ([]*domain.Defect, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewReportHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/export/csv", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.ExportCSV(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
