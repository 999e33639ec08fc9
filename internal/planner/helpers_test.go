package planner

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"routeiq/internal/domain"
)

var (
	union     = domain.Station{Code: "UN", Name: "Union Bus Terminal", Lat: 43.6452, Lng: -79.3806, Type: domain.StationTypeBus}
	yorkdale  = domain.Station{Code: "YD", Name: "Yorkdale Bus Terminal", Lat: 43.7253, Lng: -79.4515, Type: domain.StationTypeBus}
	oshawa    = domain.Station{Code: "OS", Name: "Oshawa GO Bus Terminal", Lat: 43.8677, Lng: -78.8663, Type: domain.StationTypeBus}
	testNow   = time.Date(2026, 10, 14, 12, 15, 0, 0, time.UTC)
	downtown  = domain.PlaceAt(domain.LatLng{Lat: 43.6500, Lng: -79.3800})
	testAddr  = domain.Place{Address: "100 Queen St W, Toronto"}
	stationsT = stationList{union, yorkdale, oshawa}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stationList []domain.Station

func (l stationList) Stations() []domain.Station { return l }

func (l stationList) Station(code string) (domain.Station, bool) {
	for _, s := range l {
		if s.Code == code {
			return s, true
		}
	}
	return domain.Station{}, false
}

type legCall struct {
	Origin      string
	Destination string
	Mode        domain.TravelMode
}

type fakeDirections struct {
	mu    sync.Mutex
	calls []legCall
	fn    func(ctx context.Context, origin, destination domain.Place, mode domain.TravelMode) (*domain.Leg, error)
}

func (f *fakeDirections) GetLeg(ctx context.Context, origin, destination domain.Place, mode domain.TravelMode) (*domain.Leg, error) {
	f.mu.Lock()
	f.calls = append(f.calls, legCall{Origin: origin.Query(), Destination: destination.Query(), Mode: mode})
	f.mu.Unlock()
	return f.fn(ctx, origin, destination, mode)
}

func (f *fakeDirections) Calls() []legCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]legCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func stationQuery(s domain.Station) string {
	return domain.PlaceAt(s.Location()).Query()
}

// legsByStation answers origin to station legs from durations keyed by
// station code and every station to destination leg with fromMinutes.
func legsByStation(to map[string]int, fromMinutes int) *fakeDirections {
	byQuery := make(map[string]int)
	for _, s := range stationsT {
		if d, ok := to[s.Code]; ok {
			byQuery[stationQuery(s)] = d
		}
	}
	return &fakeDirections{fn: func(_ context.Context, _, destination domain.Place, mode domain.TravelMode) (*domain.Leg, error) {
		if mode == domain.TravelModeTransit {
			return &domain.Leg{DurationMinutes: fromMinutes, Distance: "12.0 km", DistanceKm: 12}, nil
		}
		d, ok := byQuery[destination.Query()]
		if !ok {
			return nil, nil
		}
		return &domain.Leg{DurationMinutes: d, Distance: "2.0 km", DistanceKm: 2}, nil
	}}
}

type fixedSchedule map[string][]domain.Departure

func (f fixedSchedule) Upcoming(station domain.Station, _ time.Time) []domain.Departure {
	return f[station.Code]
}

type fixedRand float64

func (r fixedRand) Float64() float64 { return float64(r) }

type memoryStats struct {
	mu    sync.Mutex
	total domain.LifetimeStats
}

func (m *memoryStats) Add(_ context.Context, d domain.LifetimeStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total.Trips += d.Trips
	m.total.TimeSaved += d.TimeSaved
	m.total.CO2Saved += d.CO2Saved
	m.total.Reroutes += d.Reroutes
	return nil
}

func (m *memoryStats) Get() domain.LifetimeStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

func candidate(code string, dep domain.Departure, total int) *domain.RouteCandidate {
	return &domain.RouteCandidate{
		Station:       domain.Station{Code: code, Name: code},
		Departure:     dep,
		TotalDuration: total,
	}
}
