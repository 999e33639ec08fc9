package schedule

import (
	"testing"
	"time"

	"routeiq/internal/domain"
)

var route1 = Route{
	Name:     "Route 1",
	Weekday:  DefaultTimes(),
	Saturday: []string{"07:00", "07:30", "08:00", "21:00"},
	Sunday:   []string{"08:00", "08:30", "20:00"},
}

var union = domain.Station{Code: "UN", Name: "Union Bus Terminal"}

func TestDefaultTimes(t *testing.T) {
	times := DefaultTimes()
	if len(times) != 33 {
		t.Fatalf("expected 33 default departures, got %d", len(times))
	}
	if times[0] != "06:00" || times[len(times)-1] != "22:00" {
		t.Errorf("unexpected default range %s..%s", times[0], times[len(times)-1])
	}
	if times[1] != "06:30" {
		t.Errorf("expected half-hourly steps, got %s", times[1])
	}
}

func TestUpcoming_WeekdayAfterNoon(t *testing.T) {
	// Wednesday 12:15
	now := time.Date(2026, 10, 14, 12, 15, 0, 0, time.UTC)
	p := NewProvider([]Route{route1})

	deps := p.Upcoming(union, now)
	if len(deps) == 0 {
		t.Fatal("expected upcoming departures")
	}
	if deps[0] != "12:30" {
		t.Errorf("expected first departure 12:30, got %s", deps[0])
	}
	for _, d := range deps {
		m, _ := ParseClock(string(d))
		if m <= 12*60+15 {
			t.Errorf("departure %s is not strictly after 12:15", d)
		}
	}
}

func TestUpcoming_ExactBoundaryExcluded(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 30, 45, 0, time.UTC)
	deps := NewProvider([]Route{route1}).Upcoming(union, now)
	if len(deps) == 0 || deps[0] != "13:00" {
		t.Errorf("expected 12:30 to be excluded at 12:30, got %v", deps)
	}
}

func TestUpcoming_DayOfWeekTables(t *testing.T) {
	p := NewProvider([]Route{route1})

	tests := []struct {
		name  string
		now   time.Time
		first domain.Departure
		count int
	}{
		{"saturday", time.Date(2026, 10, 17, 7, 10, 0, 0, time.UTC), "07:30", 3},
		{"sunday", time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC), "08:30", 2},
		{"monday", time.Date(2026, 10, 19, 21, 45, 0, 0, time.UTC), "22:00", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			deps := p.Upcoming(union, tc.now)
			if len(deps) != tc.count {
				t.Fatalf("expected %d departures, got %d (%v)", tc.count, len(deps), deps)
			}
			if deps[0] != tc.first {
				t.Errorf("expected first %s, got %s", tc.first, deps[0])
			}
		})
	}
}

func TestUpcoming_DefaultWhenNoRouteConfigured(t *testing.T) {
	now := time.Date(2026, 10, 18, 21, 0, 0, 0, time.UTC) // Sunday
	deps := NewProvider(nil).Upcoming(union, now)
	want := []domain.Departure{"21:30", "22:00"}
	if len(deps) != len(want) {
		t.Fatalf("expected %v, got %v", want, deps)
	}
	for i := range want {
		if deps[i] != want[i] {
			t.Errorf("departure %d: expected %s, got %s", i, want[i], deps[i])
		}
	}
}

func TestUpcoming_RouteRestrictedToStations(t *testing.T) {
	restricted := Route{Name: "Express", Stations: []string{"HA"}, Weekday: []string{"23:00"}}
	p := NewProvider([]Route{restricted})
	now := time.Date(2026, 10, 14, 21, 50, 0, 0, time.UTC)

	if deps := p.Upcoming(domain.Station{Code: "HA"}, now); len(deps) != 1 || deps[0] != "23:00" {
		t.Errorf("expected express table for HA, got %v", deps)
	}
	if deps := p.Upcoming(union, now); len(deps) != 1 || deps[0] != "22:00" {
		t.Errorf("expected default table for UN, got %v", deps)
	}
}

func TestFilterAfter_SortsAndDropsGarbage(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	deps := FilterAfter([]string{"10:00", "garbage", "9:30", "25:00", "08:00"}, now)
	want := []domain.Departure{"09:30", "10:00"}
	if len(deps) != len(want) {
		t.Fatalf("expected %v, got %v", want, deps)
	}
	for i := range want {
		if deps[i] != want[i] {
			t.Errorf("departure %d: expected %s, got %s", i, want[i], deps[i])
		}
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"00:00", 0, true},
		{"08:05", 485, true},
		{"23:59", 1439, true},
		{" 7:30 ", 450, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseClock(tc.in)
			if ok != tc.ok || got != tc.want {
				t.Errorf("ParseClock(%q) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestMinutesUntil(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 15, 30, 0, time.UTC)
	if got := MinutesUntil("12:30", now); got != 14 {
		t.Errorf("expected 14 minutes, got %d", got)
	}
	if got := MinutesUntil("bad", now); got != 0 {
		t.Errorf("expected 0 for unparseable departure, got %d", got)
	}
}
