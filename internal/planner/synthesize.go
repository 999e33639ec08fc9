package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"routeiq/internal/domain"
	"routeiq/pkg/mapsapi"
)

const (
	// TransferMinutes is added to every candidate for changing onto the bus
	TransferMinutes = 5
	// DeparturesPerStation caps how many departures each station contributes
	DeparturesPerStation = 3
	// NearbyStations is how many stations are tried for an address destination
	NearbyStations = 5
)

type DirectionsGateway interface {
	GetLeg(ctx context.Context, origin, destination domain.Place, mode domain.TravelMode) (*domain.Leg, error)
}

type ScheduleProvider interface {
	Upcoming(station domain.Station, now time.Time) []domain.Departure
}

// Outcome classifies a best-effort external call
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeEmpty
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// Classify maps a directions result to an Outcome. A missing route is
// empty, any other error is a failure.
func Classify(leg *domain.Leg, err error) Outcome {
	switch {
	case err == nil && leg != nil:
		return OutcomeOK
	case err == nil, errors.Is(err, mapsapi.ErrNoRoute):
		return OutcomeEmpty
	default:
		return OutcomeFailed
	}
}

// Observer receives planner events for instrumentation
type Observer interface {
	ObserveLeg(outcome string)
	ObserveSearch(outcome string, elapsed time.Duration)
	ObserveStale()
}

type nopObserver struct{}

func (nopObserver) ObserveLeg(string)                   {}
func (nopObserver) ObserveSearch(string, time.Duration) {}
func (nopObserver) ObserveStale()                       {}

type SynthesisRequest struct {
	Origin      domain.Place
	Destination domain.Place
	// DestinationIsStation skips the station to destination leg
	DestinationIsStation bool
	Stations             []domain.Station
	Mode                 domain.TravelMode
	Now                  time.Time
}

type SynthesizerOptions struct {
	LegTimeout    time.Duration
	MaxConcurrent int
	Observer      Observer
}

type Synthesizer struct {
	directions DirectionsGateway
	schedules  ScheduleProvider
	traffic    *TrafficEstimator
	opts       SynthesizerOptions
	logger     *slog.Logger
}

func NewSynthesizer(directions DirectionsGateway, schedules ScheduleProvider, traffic *TrafficEstimator, opts SynthesizerOptions, logger *slog.Logger) *Synthesizer {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 8
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if traffic == nil {
		traffic = NewTrafficEstimator(nil)
	}
	return &Synthesizer{
		directions: directions,
		schedules:  schedules,
		traffic:    traffic,
		opts:       opts,
		logger:     logger,
	}
}

// Synthesize builds candidates for every station whose legs resolve.
// Stations are looked up concurrently and the call returns only after all
// of them settle. Output order is station order, then departure order.
func (s *Synthesizer) Synthesize(ctx context.Context, req SynthesisRequest) []*domain.RouteCandidate {
	perStation := make([][]*domain.RouteCandidate, len(req.Stations))

	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrent)

	for i, station := range req.Stations {
		g.Go(func() error {
			perStation[i] = s.forStation(ctx, req, station)
			return nil
		})
	}
	_ = g.Wait()

	var candidates []*domain.RouteCandidate
	for _, cs := range perStation {
		candidates = append(candidates, cs...)
	}
	return candidates
}

func (s *Synthesizer) forStation(ctx context.Context, req SynthesisRequest, station domain.Station) []*domain.RouteCandidate {
	stationPlace := domain.PlaceAt(station.Location())

	toStation, ok := s.leg(ctx, req.Origin, stationPlace, req.Mode, station.Code)
	if !ok {
		return nil
	}

	var fromStation *domain.Leg
	if !req.DestinationIsStation {
		fromStation, ok = s.leg(ctx, stationPlace, req.Destination, domain.TravelModeTransit, station.Code)
		if !ok {
			return nil
		}
	}

	departures := s.schedules.Upcoming(station, req.Now)
	if len(departures) > DeparturesPerStation {
		departures = departures[:DeparturesPerStation]
	}
	if len(departures) == 0 {
		return nil
	}

	total := toStation.DurationMinutes + TransferMinutes
	if fromStation != nil {
		total += fromStation.DurationMinutes
	}
	traffic := s.traffic.Level(req.Now)
	co2 := EstimateCO2(legDistanceKm(toStation), req.Mode)

	out := make([]*domain.RouteCandidate, 0, len(departures))
	for _, dep := range departures {
		out = append(out, &domain.RouteCandidate{
			Station:       station,
			ToStation:     toStation,
			FromStation:   fromStation,
			TravelMode:    req.Mode,
			Departure:     dep,
			TotalDuration: total,
			Summary:       Summary(req.Mode, station, toStation, dep),
			CO2Kg:         co2,
			Traffic:       traffic,
		})
	}
	return out
}

func (s *Synthesizer) leg(ctx context.Context, origin, destination domain.Place, mode domain.TravelMode, stationCode string) (*domain.Leg, bool) {
	if s.opts.LegTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.LegTimeout)
		defer cancel()
	}

	leg, err := s.directions.GetLeg(ctx, origin, destination, mode)
	outcome := Classify(leg, err)
	s.opts.Observer.ObserveLeg(outcome.String())

	switch outcome {
	case OutcomeOK:
		return leg, true
	case OutcomeEmpty:
		s.logger.Debug("no route to station", "station", stationCode, "mode", mode)
	default:
		s.logger.Warn("directions lookup failed", "station", stationCode, "mode", mode, "error", err)
	}
	return nil, false
}

// Summary is the one-line description shown for a candidate
func Summary(mode domain.TravelMode, station domain.Station, toStation *domain.Leg, dep domain.Departure) string {
	return fmt.Sprintf("%s to %s (%s) • Bus at %s", mode.Label(), station.Name, toStation.Distance, dep)
}
