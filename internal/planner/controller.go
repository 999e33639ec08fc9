package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"routeiq/internal/domain"
	"routeiq/internal/geo"
	"routeiq/internal/schedule"
)

// MaxBoard is how many upcoming departures the departure board lists
const MaxBoard = 5

type StationSource interface {
	Stations() []domain.Station
	Station(code string) (domain.Station, bool)
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.LatLng, error)
}

// StatsSink accumulates lifetime counters. Only the non-zero fields of
// delta are applied.
type StatsSink interface {
	Add(ctx context.Context, delta domain.LifetimeStats) error
}

type SearchRequest struct {
	Origin             domain.Place      `json:"origin"`
	OriginStation      string            `json:"origin_station,omitempty"`
	Destination        domain.Place      `json:"destination"`
	DestinationStation string            `json:"destination_station,omitempty"`
	Mode               domain.TravelMode `json:"mode"`
}

type SearchOutcome string

const (
	SearchOK         SearchOutcome = "ok"
	SearchNoStations SearchOutcome = "no_stations"
	SearchNoRoutes   SearchOutcome = "no_routes"
)

type SearchResult struct {
	Generation uint64                   `json:"generation"`
	Outcome    SearchOutcome            `json:"outcome"`
	Candidates []*domain.RouteCandidate `json:"candidates"`
	Displayed  []*domain.RouteCandidate `json:"displayed"`
	Active     int                      `json:"active"`
	Plan       *DeparturePlan           `json:"plan,omitempty"`
	Traffic    TrafficTally             `json:"traffic"`
}

// Err returns the sentinel matching a non-ok outcome
func (r *SearchResult) Err() error {
	switch r.Outcome {
	case SearchNoStations:
		return ErrNoStations
	case SearchNoRoutes:
		return ErrNoRoutes
	default:
		return nil
	}
}

type BoardEntry struct {
	Departure    domain.Departure `json:"departure"`
	MinutesUntil int              `json:"minutes_until"`
	Next         bool             `json:"next"`
}

type Selection struct {
	Index     int                    `json:"index"`
	Candidate *domain.RouteCandidate `json:"candidate"`
	Plan      *DeparturePlan         `json:"plan,omitempty"`
	Board     []BoardEntry           `json:"board"`
}

type Navigation struct {
	Selection
	Message string `json:"message"`
}

type ControllerOptions struct {
	SearchTimeout time.Duration
	Now           func() time.Time
	Observer      Observer
}

// Controller runs searches and selections against a session's SearchState
type Controller struct {
	stations    StationSource
	geocoder    Geocoder
	synthesizer *Synthesizer
	schedules   ScheduleProvider
	stats       StatsSink
	opts        ControllerOptions
	logger      *slog.Logger
}

func NewController(stations StationSource, geocoder Geocoder, synthesizer *Synthesizer, schedules ScheduleProvider, stats StatsSink, opts ControllerOptions, logger *slog.Logger) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Controller{
		stations:    stations,
		geocoder:    geocoder,
		synthesizer: synthesizer,
		schedules:   schedules,
		stats:       stats,
		opts:        opts,
		logger:      logger,
	}
}

// Search validates the request, synthesizes and ranks candidates, commits
// them to state and auto-selects the fastest. Finding nothing is reported
// through the result outcome, not as an error.
func (c *Controller) Search(ctx context.Context, state *SearchState, req SearchRequest) (*SearchResult, error) {
	started := time.Now()

	if req.Origin.IsZero() && req.OriginStation == "" {
		return nil, ErrMissingOrigin
	}
	if req.Destination.IsZero() && req.DestinationStation == "" {
		return nil, ErrMissingDestination
	}
	mode := req.Mode
	if mode == "" {
		mode = domain.TravelModeWalking
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}

	if c.opts.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.SearchTimeout)
		defer cancel()
	}

	origin, err := c.resolveOrigin(ctx, req)
	if err != nil {
		return nil, err
	}

	synth := SynthesisRequest{
		Origin:      domain.PlaceAt(origin),
		Destination: req.Destination,
		Mode:        mode,
		Now:         c.opts.Now(),
	}
	if req.DestinationStation != "" {
		station, ok := c.stations.Station(req.DestinationStation)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStation, req.DestinationStation)
		}
		synth.Destination = domain.PlaceAt(station.Location())
		synth.DestinationIsStation = true
		synth.Stations = []domain.Station{station}
	} else {
		for _, sd := range geo.NearestStations(origin, c.stations.Stations(), NearbyStations) {
			synth.Stations = append(synth.Stations, sd.Station)
		}
	}

	gen, hadSelection := state.Begin(mode)
	result := &SearchResult{Generation: gen, Active: -1, Candidates: []*domain.RouteCandidate{}, Displayed: []*domain.RouteCandidate{}}

	if len(synth.Stations) == 0 {
		if !state.Commit(gen, nil) {
			return nil, c.stale(gen)
		}
		result.Outcome = SearchNoStations
		c.opts.Observer.ObserveSearch(string(result.Outcome), time.Since(started))
		return result, nil
	}

	ranked := Rank(c.synthesizer.Synthesize(ctx, synth))
	// A deadline hit during synthesis is not a no-routes result
	if err := ctx.Err(); err != nil {
		c.opts.Observer.ObserveSearch("timeout", time.Since(started))
		c.logger.Warn("search did not finish", "generation", gen, "error", err)
		return nil, fmt.Errorf("search: %w", err)
	}
	if !state.Commit(gen, ranked) {
		return nil, c.stale(gen)
	}

	if len(ranked) == 0 {
		result.Outcome = SearchNoRoutes
		c.opts.Observer.ObserveSearch(string(result.Outcome), time.Since(started))
		c.logger.Info("no routes found", "generation", gen, "stations", len(synth.Stations))
		return result, nil
	}

	fastest := ranked[0]
	result.Outcome = SearchOK
	result.Candidates = ranked
	result.Displayed = Display(ranked)
	result.Active = 0
	result.Traffic = Tally(ranked)
	if plan, ok := PlanDeparture(fastest, "", c.schedules.Upcoming(fastest.Station, synth.Now), synth.Now); ok {
		result.Plan = &plan
	}

	delta := domain.LifetimeStats{
		Trips:     1,
		TimeSaved: int64(TimeSaved(fastest)),
		CO2Saved:  fastest.CO2Kg,
	}
	if hadSelection {
		delta.Reroutes = 1
	}
	c.record(ctx, delta)

	c.opts.Observer.ObserveSearch(string(result.Outcome), time.Since(started))
	c.logger.Debug("search completed",
		"generation", gen,
		"stations", len(synth.Stations),
		"candidates", len(ranked),
		"fastest", fastest.Key(),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return result, nil
}

func (c *Controller) resolveOrigin(ctx context.Context, req SearchRequest) (domain.LatLng, error) {
	if req.OriginStation != "" {
		station, ok := c.stations.Station(req.OriginStation)
		if !ok {
			return domain.LatLng{}, fmt.Errorf("%w: %s", ErrUnknownStation, req.OriginStation)
		}
		return station.Location(), nil
	}
	if req.Origin.Location != nil {
		return *req.Origin.Location, nil
	}
	if c.geocoder == nil {
		return domain.LatLng{}, ErrOriginNotLocated
	}
	loc, err := c.geocoder.Geocode(ctx, req.Origin.Address)
	if err != nil {
		return domain.LatLng{}, fmt.Errorf("%w: %v", ErrOriginNotLocated, err)
	}
	return loc, nil
}

func (c *Controller) stale(gen uint64) error {
	c.opts.Observer.ObserveStale()
	c.logger.Debug("discarding stale search", "generation", gen)
	return ErrStaleSearch
}

// Select activates a candidate and plans the leave-by time for dep, or for
// the first upcoming departure when dep is empty.
func (c *Controller) Select(ctx context.Context, state *SearchState, index int, dep domain.Departure) (*Selection, error) {
	if dep != "" {
		if _, ok := schedule.ParseClock(string(dep)); !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDeparture, dep)
		}
	}

	candidate, err := state.Select(index, dep)
	if err != nil {
		return nil, err
	}
	c.record(ctx, domain.LifetimeStats{Trips: 1})

	return c.selection(index, candidate, dep), nil
}

// Start selects a candidate and returns the navigation summary for it
func (c *Controller) Start(ctx context.Context, state *SearchState, index int) (*Navigation, error) {
	sel, err := c.Select(ctx, state, index, "")
	if err != nil {
		return nil, err
	}
	return &Navigation{Selection: *sel, Message: NavigationMessage(sel.Candidate)}, nil
}

// Departures returns the current selection with its departure board
func (c *Controller) Departures(state *SearchState) (*Selection, error) {
	snap := state.Snapshot()
	candidate, ok := snap.ActiveCandidate()
	if !ok {
		return nil, ErrNoSelection
	}
	return c.selection(snap.Active, candidate, snap.Departure), nil
}

func (c *Controller) selection(index int, candidate *domain.RouteCandidate, dep domain.Departure) *Selection {
	now := c.opts.Now()
	upcoming := c.schedules.Upcoming(candidate.Station, now)

	sel := &Selection{
		Index:     index,
		Candidate: candidate,
		Board:     Board(upcoming, now, MaxBoard),
	}
	if plan, ok := PlanDeparture(candidate, dep, upcoming, now); ok {
		sel.Plan = &plan
	}
	return sel
}

func (c *Controller) record(ctx context.Context, delta domain.LifetimeStats) {
	if c.stats == nil {
		return
	}
	if err := c.stats.Add(ctx, delta); err != nil {
		c.logger.Warn("failed to record stats", "error", err)
	}
}

// Board lists up to limit upcoming departures with minutes until each
func Board(upcoming []domain.Departure, now time.Time, limit int) []BoardEntry {
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	board := make([]BoardEntry, 0, len(upcoming))
	for i, dep := range upcoming {
		board = append(board, BoardEntry{
			Departure:    dep,
			MinutesUntil: schedule.MinutesUntil(dep, now),
			Next:         i == 0,
		})
	}
	return board
}

// NavigationMessage describes how to reach the candidate's station
func NavigationMessage(c *domain.RouteCandidate) string {
	if c.ToStation != nil && len(c.ToStation.Steps) > 0 {
		return fmt.Sprintf("Follow %d steps to %s. Route highlighted on map.", len(c.ToStation.Steps), c.Station.Name)
	}
	return fmt.Sprintf("%s to %s • Depart at %s • Duration: %d min", c.TravelMode.Label(), c.Station.Name, c.Departure, c.TotalDuration)
}
