package assistant

import (
	"fmt"
	"strings"
	"time"

	"routeiq/internal/domain"
	"routeiq/internal/planner"
)

// Context is the trip data the assistant reasons over. Empty fields mean
// the data is not available yet.
type Context struct {
	Origin        string `json:"origin,omitempty"`
	Destination   string `json:"destination,omitempty"`
	ArrivalTime   string `json:"arrival_time,omitempty"`
	Routes        string `json:"routes,omitempty"`
	TrafficData   string `json:"traffic_data,omitempty"`
	BusSchedule   string `json:"bus_schedule,omitempty"`
	SelectedRoute string `json:"selected_route,omitempty"`
}

// BuildContext summarizes a search state for the assistant
func BuildContext(snap planner.StateSnapshot, upcoming []domain.Departure, now time.Time) Context {
	var c Context

	if len(snap.Candidates) > 0 {
		var b strings.Builder
		for i, cand := range snap.Candidates {
			if i > 0 {
				b.WriteByte('\n')
			}
			distance := ""
			if cand.ToStation != nil {
				distance = cand.ToStation.Distance
			}
			fmt.Fprintf(&b, "%d. To %s - %s (%s) • Bus at %s • Duration: %d min • Traffic: %s • CO2: %.1fkg",
				i+1, cand.Station.Name, cand.TravelMode, distance, cand.Departure, cand.TotalDuration, cand.Traffic, cand.CO2Kg)
		}
		c.Routes = b.String()

		t := planner.Tally(snap.Candidates)
		c.TrafficData = fmt.Sprintf("Heavy: %d routes, Medium: %d routes, Low: %d routes. Current hour: %d:00. Peak hours (7-9am, 5-7pm) typically have heavier traffic.",
			t.Heavy, t.Medium, t.Low, now.Hour())
	}

	if len(upcoming) > 0 {
		n := min(len(upcoming), 3)
		times := make([]string, n)
		for i := range n {
			times[i] = string(upcoming[i])
		}
		c.BusSchedule = strings.Join(times, ", ")
	}

	if active, ok := snap.ActiveCandidate(); ok {
		c.SelectedRoute = active.Summary
	}
	return c
}
