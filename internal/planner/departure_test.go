package planner

import (
	"testing"
	"time"

	"routeiq/internal/domain"
)

func TestLeaveBy(t *testing.T) {
	c := &domain.RouteCandidate{
		Station:   union,
		ToStation: &domain.Leg{DurationMinutes: 20},
	}
	now := time.Date(2026, 10, 14, 6, 0, 0, 0, time.UTC)

	plan, ok := LeaveBy(c, "08:00", now)
	if !ok {
		t.Fatal("LeaveBy returned false")
	}
	if plan.LeaveByClock != "07:30" {
		t.Errorf("LeaveByClock = %s, want 07:30", plan.LeaveByClock)
	}
	if want := time.Date(2026, 10, 14, 7, 30, 0, 0, time.UTC); !plan.LeaveBy.Equal(want) {
		t.Errorf("LeaveBy = %v, want %v", plan.LeaveBy, want)
	}
	if want := "You should leave by 07:30 to catch the 08:00 bus."; plan.Message != want {
		t.Errorf("Message = %q, want %q", plan.Message, want)
	}
}

func TestLeaveBy_PastDepartureStaysOnToday(t *testing.T) {
	c := &domain.RouteCandidate{ToStation: &domain.Leg{DurationMinutes: 5}}
	now := time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC)

	plan, ok := LeaveBy(c, "06:00", now)
	if !ok {
		t.Fatal("LeaveBy returned false")
	}
	if plan.LeaveBy.Day() != 14 || plan.LeaveByClock != "05:45" {
		t.Errorf("LeaveBy = %v, want 05:45 on the 14th", plan.LeaveBy)
	}
}

func TestLeaveBy_InvalidInput(t *testing.T) {
	c := &domain.RouteCandidate{ToStation: &domain.Leg{DurationMinutes: 5}}
	if _, ok := LeaveBy(c, "noon", testNow); ok {
		t.Error("expected false for unparseable departure")
	}
	if _, ok := LeaveBy(&domain.RouteCandidate{}, "12:30", testNow); ok {
		t.Error("expected false for candidate without origin leg")
	}
}

func TestPlanDeparture(t *testing.T) {
	c := &domain.RouteCandidate{ToStation: &domain.Leg{DurationMinutes: 10}}
	upcoming := []domain.Departure{"12:30", "13:00"}

	plan, ok := PlanDeparture(c, "", upcoming, testNow)
	if !ok || plan.Departure != "12:30" || plan.LeaveByClock != "12:10" {
		t.Errorf("default plan = %+v, %v", plan, ok)
	}

	plan, ok = PlanDeparture(c, "13:00", upcoming, testNow)
	if !ok || plan.Departure != "13:00" || plan.LeaveByClock != "12:40" {
		t.Errorf("chosen plan = %+v, %v", plan, ok)
	}

	if _, ok := PlanDeparture(c, "", nil, testNow); ok {
		t.Error("expected false without departures")
	}
}

func TestTimeSaved(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{0, 0},
		{4, 0},
		{5, 1},
		{37, 7},
		{50, 10},
	}
	for _, tt := range tests {
		if got := TimeSaved(&domain.RouteCandidate{TotalDuration: tt.total}); got != tt.want {
			t.Errorf("TimeSaved(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestBoard(t *testing.T) {
	upcoming := []domain.Departure{"12:30", "13:00", "13:30", "14:00", "14:30", "15:00"}
	now := time.Date(2026, 10, 14, 12, 15, 30, 0, time.UTC)

	board := Board(upcoming, now, MaxBoard)
	if len(board) != MaxBoard {
		t.Fatalf("board = %d entries, want %d", len(board), MaxBoard)
	}
	if !board[0].Next || board[1].Next {
		t.Error("only the first entry should be next")
	}
	if board[0].MinutesUntil != 14 {
		t.Errorf("MinutesUntil = %d, want 14", board[0].MinutesUntil)
	}
	if board[4].Departure != "14:30" {
		t.Errorf("last departure = %s, want 14:30", board[4].Departure)
	}
}
