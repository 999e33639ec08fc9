package planner

import (
	"sync"

	"routeiq/internal/domain"
)

// SearchState is the mutable search context of one session: the ranked
// candidates, the active selection and the chosen departure. Every search
// bumps the generation, and results carrying an older generation are
// rejected on commit.
type SearchState struct {
	mu         sync.RWMutex
	generation uint64
	mode       domain.TravelMode
	candidates []*domain.RouteCandidate
	active     int
	departure  domain.Departure
}

func NewSearchState() *SearchState {
	return &SearchState{active: -1}
}

// StateSnapshot is a point-in-time copy of a SearchState
type StateSnapshot struct {
	Generation uint64                   `json:"generation"`
	Mode       domain.TravelMode        `json:"mode,omitempty"`
	Candidates []*domain.RouteCandidate `json:"candidates"`
	Active     int                      `json:"active"`
	Departure  domain.Departure         `json:"departure,omitempty"`
}

// ActiveCandidate returns the selected candidate, if any
func (s StateSnapshot) ActiveCandidate() (*domain.RouteCandidate, bool) {
	if s.Active < 0 || s.Active >= len(s.Candidates) {
		return nil, false
	}
	return s.Candidates[s.Active], true
}

// Begin starts a new search and returns its generation. It reports whether
// a candidate was selected before the reset.
func (s *SearchState) Begin(mode domain.TravelMode) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hadSelection := s.active >= 0
	s.generation++
	s.mode = mode
	s.candidates = nil
	s.active = -1
	s.departure = ""
	return s.generation, hadSelection
}

// Commit stores ranked results for gen and selects the fastest. It returns
// false, leaving the state untouched, when a newer search has begun.
func (s *SearchState) Commit(gen uint64, ranked []*domain.RouteCandidate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.candidates = ranked
	s.active = -1
	if len(ranked) > 0 {
		s.active = 0
	}
	return true
}

// Select makes index the active candidate and records the chosen departure.
// An empty departure clears any previous choice.
func (s *SearchState) Select(index int, dep domain.Departure) (*domain.RouteCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.candidates) {
		return nil, ErrInvalidIndex
	}
	s.active = index
	s.departure = dep
	return s.candidates[index], nil
}

// ChooseDeparture changes the departure for the active candidate
func (s *SearchState) ChooseDeparture(dep domain.Departure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active < 0 {
		return ErrNoSelection
	}
	s.departure = dep
	return nil
}

func (s *SearchState) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *SearchState) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]*domain.RouteCandidate, len(s.candidates))
	copy(candidates, s.candidates)

	return StateSnapshot{
		Generation: s.generation,
		Mode:       s.mode,
		Candidates: candidates,
		Active:     s.active,
		Departure:  s.departure,
	}
}
