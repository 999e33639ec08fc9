package planner

import (
	"fmt"
	"math"
	"time"

	"routeiq/internal/domain"
	"routeiq/internal/schedule"
)

const (
	// LeaveBuffer is the slack kept before a bus departure
	LeaveBuffer = 10 * time.Minute
	// TimeSavedRatio is the share of a trip assumed saved versus driving in traffic
	TimeSavedRatio = 0.2
)

// DeparturePlan is the leave-by answer for one candidate and departure
type DeparturePlan struct {
	Departure    domain.Departure `json:"departure"`
	LeaveBy      time.Time        `json:"leave_by"`
	LeaveByClock string           `json:"leave_by_clock"`
	Message      string           `json:"message"`
}

// LeaveBy computes departure - origin leg duration - LeaveBuffer on now's
// calendar date. A departure earlier than now is still placed on today.
func LeaveBy(c *domain.RouteCandidate, dep domain.Departure, now time.Time) (DeparturePlan, bool) {
	busTime, ok := schedule.At(dep, now)
	if !ok || c == nil || c.ToStation == nil {
		return DeparturePlan{}, false
	}

	leave := busTime.
		Add(-time.Duration(c.ToStation.DurationMinutes) * time.Minute).
		Add(-LeaveBuffer)
	clock := leave.Format("15:04")

	return DeparturePlan{
		Departure:    dep,
		LeaveBy:      leave,
		LeaveByClock: clock,
		Message:      fmt.Sprintf("You should leave by %s to catch the %s bus.", clock, dep),
	}, true
}

// PlanDeparture resolves which departure to plan for: the user's choice
// when given, otherwise the first upcoming departure.
func PlanDeparture(c *domain.RouteCandidate, chosen domain.Departure, upcoming []domain.Departure, now time.Time) (DeparturePlan, bool) {
	dep := chosen
	if dep == "" {
		if len(upcoming) == 0 {
			return DeparturePlan{}, false
		}
		dep = upcoming[0]
	}
	return LeaveBy(c, dep, now)
}

// TimeSaved estimates minutes saved versus driving directly
func TimeSaved(c *domain.RouteCandidate) int {
	if c == nil {
		return 0
	}
	return int(math.Floor(float64(c.TotalDuration) * TimeSavedRatio))
}
