package planner

import (
	"math/rand/v2"
	"sync"
	"time"

	"routeiq/internal/domain"
)

// RandomSource yields uniform values in [0, 1)
type RandomSource interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// TrafficEstimator guesses a congestion level from the hour of day. During
// rush hour the level is a coin flip between medium and heavy, so the
// result is illustrative rather than measured.
type TrafficEstimator struct {
	mu  sync.Mutex
	rng RandomSource
}

// NewTrafficEstimator uses rng for the rush-hour coin flip, or the
// process-wide generator when rng is nil.
func NewTrafficEstimator(rng RandomSource) *TrafficEstimator {
	if rng == nil {
		rng = globalRand{}
	}
	return &TrafficEstimator{rng: rng}
}

// IsRushHour reports whether hour falls in 07:00-09:59 or 17:00-19:59
func IsRushHour(hour int) bool {
	return (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19)
}

func (e *TrafficEstimator) Level(at time.Time) domain.TrafficLevel {
	if !IsRushHour(at.Hour()) {
		return domain.TrafficLow
	}

	e.mu.Lock()
	v := e.rng.Float64()
	e.mu.Unlock()

	if v > 0.5 {
		return domain.TrafficMedium
	}
	return domain.TrafficHeavy
}

// TrafficTally counts candidates per traffic level
type TrafficTally struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	Heavy  int `json:"heavy"`
}

func Tally(candidates []*domain.RouteCandidate) TrafficTally {
	var t TrafficTally
	for _, c := range candidates {
		switch c.Traffic {
		case domain.TrafficHeavy:
			t.Heavy++
		case domain.TrafficMedium:
			t.Medium++
		default:
			t.Low++
		}
	}
	return t
}
