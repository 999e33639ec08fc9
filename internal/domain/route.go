package domain

import (
	"encoding/json"
	"strings"
)

// TravelMode is the mode used for the origin to station leg
type TravelMode string

const (
	TravelModeWalking   TravelMode = "WALKING"
	TravelModeBicycling TravelMode = "BICYCLING"
	TravelModeDriving   TravelMode = "DRIVING"
	TravelModeTransit   TravelMode = "TRANSIT"
)

func ParseTravelMode(s string) (TravelMode, bool) {
	m := TravelMode(strings.ToUpper(strings.TrimSpace(s)))
	return m, m.Valid()
}

func (m TravelMode) Valid() bool {
	switch m {
	case TravelModeWalking, TravelModeBicycling, TravelModeDriving, TravelModeTransit:
		return true
	default:
		return false
	}
}

// ZeroEmission reports whether the mode avoids all car emissions
func (m TravelMode) ZeroEmission() bool {
	return m == TravelModeWalking || m == TravelModeBicycling
}

// Label is the mode in title case, e.g. "Walking"
func (m TravelMode) Label() string {
	s := strings.ToLower(string(m))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type TrafficLevel string

const (
	TrafficLow    TrafficLevel = "low"
	TrafficMedium TrafficLevel = "medium"
	TrafficHeavy  TrafficLevel = "heavy"
)

// Departure is a scheduled bus time of day in HH:MM form
type Departure string

// Step is a single instruction of a directions leg
type Step struct {
	Instruction     string     `json:"instruction"`
	Distance        string     `json:"distance"`
	DurationMinutes int        `json:"duration_minutes"`
	Mode            TravelMode `json:"mode"`
	Start           LatLng     `json:"start"`
	End             LatLng     `json:"end"`
}

// Leg is one directions result between two points for one travel mode
type Leg struct {
	DurationMinutes int     `json:"duration_minutes"`
	Distance        string  `json:"distance"`
	DistanceKm      float64 `json:"distance_km"`
	Steps           []Step  `json:"steps"`

	// Raw is the provider's full result, kept for map display only.
	Raw json.RawMessage `json:"-"`
}

// RouteCandidate is one origin -> station -> destination option paired
// with a specific bus departure.
type RouteCandidate struct {
	Station       Station      `json:"station"`
	ToStation     *Leg         `json:"to_station"`
	FromStation   *Leg         `json:"from_station,omitempty"`
	TravelMode    TravelMode   `json:"travel_mode"`
	Departure     Departure    `json:"departure"`
	TotalDuration int          `json:"total_duration"`
	Summary       string       `json:"summary"`
	CO2Kg         float64      `json:"co2_kg"`
	Traffic       TrafficLevel `json:"traffic"`
}

// Key identifies a candidate by station and departure
func (c *RouteCandidate) Key() string {
	return c.Station.Code + "-" + string(c.Departure)
}
