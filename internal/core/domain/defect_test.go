package domain

import (
	"testing"
	"time"
)

func statusSet(statuses []DefectStatus) map[DefectStatus]bool {
	set := make(map[DefectStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

func TestAllowedNext_FromNew(t *testing.T) {
	next := statusSet(StatusNew.AllowedNext())
	if len(next) != 2 || !next[StatusInProgress] || !next[StatusCancelled] {
		t.Fatalf("new should allow exactly {in_progress, cancelled}, got %v", next)
	}
}

func TestAllowedNext_TerminalStatesAreEmpty(t *testing.T) {
	for _, s := range []DefectStatus{StatusClosed, StatusCancelled} {
		if got := s.AllowedNext(); len(got) != 0 {
			t.Fatalf("%s should have no outgoing transitions, got %v", s, got)
		}
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
}

func TestCanTransitionTo_FullTable(t *testing.T) {
	cases := []struct {
		from, to DefectStatus
		want     bool
	}{
		{StatusNew, StatusInProgress, true},
		{StatusNew, StatusCancelled, true},
		{StatusNew, StatusInReview, false},
		{StatusNew, StatusClosed, false},
		{StatusInProgress, StatusInReview, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusClosed, false},
		{StatusInReview, StatusClosed, true},
		{StatusInReview, StatusInProgress, true},
		{StatusInReview, StatusCancelled, true},
		{StatusInReview, StatusNew, false},
		{StatusClosed, StatusNew, false},
		{StatusClosed, StatusInProgress, false},
		{StatusCancelled, StatusInProgress, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range AllStatuses {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if DefectStatus("reopened").Valid() {
		t.Error("unknown status should be invalid")
	}
	if DefectStatus("reopened").IsTerminal() {
		t.Error("unknown status must not be treated as terminal")
	}
}

func TestIsOverdue(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	yesterday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	d := &Defect{Status: StatusInProgress, DueDate: &yesterday}
	if !d.IsOverdue(today) {
		t.Error("open defect past due date should be overdue")
	}

	d.DueDate = &tomorrow
	if d.IsOverdue(today) {
		t.Error("defect due tomorrow should not be overdue")
	}

	d.DueDate = &yesterday
	d.Status = StatusClosed
	if d.IsOverdue(today) {
		t.Error("closed defect is never overdue")
	}

	d.Status = StatusInProgress
	d.DueDate = nil
	if d.IsOverdue(today) {
		t.Error("defect without due date is never overdue")
	}
}
