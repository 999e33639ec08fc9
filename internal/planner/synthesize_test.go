package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"routeiq/internal/domain"
	"routeiq/pkg/mapsapi"
)

var threeDepartures = fixedSchedule{
	"UN": {"12:30", "13:00", "13:30", "14:00"},
	"YD": {"12:30", "13:00", "13:30"},
	"OS": {"12:45"},
}

func newTestSynthesizer(directions DirectionsGateway, schedules ScheduleProvider) *Synthesizer {
	return NewSynthesizer(directions, schedules, NewTrafficEstimator(fixedRand(0)), SynthesizerOptions{MaxConcurrent: 2}, discardLogger())
}

func TestSynthesize_TotalDurationFormula(t *testing.T) {
	directions := legsByStation(map[string]int{"UN": 10, "YD": 20}, 30)
	s := newTestSynthesizer(directions, threeDepartures)

	got := s.Synthesize(context.Background(), SynthesisRequest{
		Origin:      downtown,
		Destination: testAddr,
		Stations:    []domain.Station{union, yorkdale},
		Mode:        domain.TravelModeWalking,
		Now:         testNow,
	})

	if len(got) != 6 {
		t.Fatalf("got %d candidates, want 6", len(got))
	}
	for i, c := range got {
		want := c.ToStation.DurationMinutes + c.FromStation.DurationMinutes + TransferMinutes
		if c.TotalDuration != want {
			t.Errorf("candidate %d total = %d, want %d", i, c.TotalDuration, want)
		}
	}

	wantKeys := []string{"UN-12:30", "UN-13:00", "UN-13:30", "YD-12:30", "YD-13:00", "YD-13:30"}
	for i, key := range wantKeys {
		if got[i].Key() != key {
			t.Errorf("got[%d] = %s, want %s", i, got[i].Key(), key)
		}
	}

	first := got[0]
	if first.Summary != "Walking to Union Bus Terminal (2.0 km) • Bus at 12:30" {
		t.Errorf("Summary = %q", first.Summary)
	}
	if first.Traffic != domain.TrafficLow {
		t.Errorf("Traffic = %s, want low at midday", first.Traffic)
	}
	if math.Abs(first.CO2Kg-0.38) > 1e-9 {
		t.Errorf("CO2Kg = %v, want 0.38", first.CO2Kg)
	}
}

func TestSynthesize_SkipsStationsWithoutLegs(t *testing.T) {
	directions := &fakeDirections{fn: func(_ context.Context, origin, destination domain.Place, mode domain.TravelMode) (*domain.Leg, error) {
		switch {
		case destination.Query() == stationQuery(yorkdale):
			return nil, errors.New("provider unavailable")
		case origin.Query() == stationQuery(oshawa):
			return nil, fmt.Errorf("directions: %w", mapsapi.ErrNoRoute)
		default:
			return &domain.Leg{DurationMinutes: 10, Distance: "1 km"}, nil
		}
	}}
	s := newTestSynthesizer(directions, threeDepartures)

	got := s.Synthesize(context.Background(), SynthesisRequest{
		Origin:      downtown,
		Destination: testAddr,
		Stations:    []domain.Station{union, yorkdale, oshawa},
		Mode:        domain.TravelModeWalking,
		Now:         testNow,
	})

	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	for _, c := range got {
		if c.Station.Code != "UN" {
			t.Errorf("unexpected station %s", c.Station.Code)
		}
	}

	for _, call := range directions.Calls() {
		if call.Origin == stationQuery(yorkdale) {
			t.Error("second leg requested after first leg failed")
		}
	}
}

func TestSynthesize_StationDestinationSkipsSecondLeg(t *testing.T) {
	directions := legsByStation(map[string]int{"YD": 12}, 30)
	s := newTestSynthesizer(directions, threeDepartures)

	got := s.Synthesize(context.Background(), SynthesisRequest{
		Origin:               downtown,
		Destination:          domain.PlaceAt(yorkdale.Location()),
		DestinationIsStation: true,
		Stations:             []domain.Station{yorkdale},
		Mode:                 domain.TravelModeDriving,
		Now:                  testNow,
	})

	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	for _, c := range got {
		if c.FromStation != nil {
			t.Error("FromStation should be absent")
		}
		if c.TotalDuration != 12+TransferMinutes {
			t.Errorf("total = %d, want %d", c.TotalDuration, 12+TransferMinutes)
		}
	}
	for _, call := range directions.Calls() {
		if call.Mode == domain.TravelModeTransit {
			t.Error("transit leg requested for a station destination")
		}
	}
}

func TestSynthesize_StationWithoutDepartures(t *testing.T) {
	directions := legsByStation(map[string]int{"UN": 10}, 30)
	s := newTestSynthesizer(directions, fixedSchedule{})

	got := s.Synthesize(context.Background(), SynthesisRequest{
		Origin:      downtown,
		Destination: testAddr,
		Stations:    []domain.Station{union},
		Mode:        domain.TravelModeWalking,
		Now:         testNow,
	})
	if len(got) != 0 {
		t.Errorf("got %d candidates, want 0", len(got))
	}
}

func TestSynthesize_WaitsForSlowStations(t *testing.T) {
	directions := &fakeDirections{fn: func(_ context.Context, _, destination domain.Place, _ domain.TravelMode) (*domain.Leg, error) {
		if destination.Query() == stationQuery(union) {
			time.Sleep(50 * time.Millisecond)
		}
		return &domain.Leg{DurationMinutes: 10}, nil
	}}
	s := newTestSynthesizer(directions, threeDepartures)

	got := s.Synthesize(context.Background(), SynthesisRequest{
		Origin:      downtown,
		Destination: testAddr,
		Stations:    []domain.Station{union, yorkdale, oshawa},
		Mode:        domain.TravelModeBicycling,
		Now:         testNow,
	})

	if len(got) != 7 {
		t.Fatalf("got %d candidates, want 7", len(got))
	}
	if got[0].Station.Code != "UN" {
		t.Errorf("first candidate station = %s, want UN", got[0].Station.Code)
	}
}

func TestSynthesize_LegTimeout(t *testing.T) {
	directions := &fakeDirections{fn: func(ctx context.Context, _, destination domain.Place, _ domain.TravelMode) (*domain.Leg, error) {
		if destination.Query() == stationQuery(union) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &domain.Leg{DurationMinutes: 10}, nil
	}}
	s := NewSynthesizer(directions, threeDepartures, nil, SynthesizerOptions{LegTimeout: 20 * time.Millisecond}, discardLogger())

	got := s.Synthesize(context.Background(), SynthesisRequest{
		Origin:      downtown,
		Destination: testAddr,
		Stations:    []domain.Station{union, yorkdale},
		Mode:        domain.TravelModeWalking,
		Now:         testNow,
	})

	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	if got[0].Station.Code != "YD" {
		t.Errorf("station = %s, want YD", got[0].Station.Code)
	}
}

func TestClassify(t *testing.T) {
	leg := &domain.Leg{}
	tests := []struct {
		name string
		leg  *domain.Leg
		err  error
		want Outcome
	}{
		{"ok", leg, nil, OutcomeOK},
		{"nil leg", nil, nil, OutcomeEmpty},
		{"no route", nil, fmt.Errorf("wrap: %w", mapsapi.ErrNoRoute), OutcomeEmpty},
		{"failure", nil, errors.New("boom"), OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.leg, tt.err); got != tt.want {
				t.Errorf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}
