package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"routeiq/internal/domain"
)

// Route is a bus route's departure tables by day type. A route with no
// station codes serves every station.
type Route struct {
	Name     string   `json:"name" yaml:"name"`
	Stations []string `json:"stations,omitempty" yaml:"stations,omitempty"`
	Weekday  []string `json:"weekday" yaml:"weekday"`
	Saturday []string `json:"saturday" yaml:"saturday"`
	Sunday   []string `json:"sunday" yaml:"sunday"`
}

func (r *Route) Serves(stationCode string) bool {
	if len(r.Stations) == 0 {
		return true
	}
	for _, code := range r.Stations {
		if strings.EqualFold(code, stationCode) {
			return true
		}
	}
	return false
}

// TableFor picks the weekday, Saturday or Sunday table for the given day
func (r *Route) TableFor(day time.Weekday) []string {
	switch day {
	case time.Sunday:
		return r.Sunday
	case time.Saturday:
		return r.Saturday
	default:
		return r.Weekday
	}
}

// DefaultTimes is the 06:00-22:00 half-hourly table used when no route
// is configured for a station.
func DefaultTimes() []string {
	times := make([]string, 0, 33)
	for m := 6 * 60; m <= 22*60; m += 30 {
		times = append(times, FormatClock(m))
	}
	return times
}

// Provider supplies upcoming departures per station
type Provider struct {
	routes []Route
}

func NewProvider(routes []Route) *Provider {
	return &Provider{routes: routes}
}

func (p *Provider) Routes() []Route {
	result := make([]Route, len(p.routes))
	copy(result, p.routes)
	return result
}

// Upcoming returns the departures for station that fall strictly after
// now's minute of the day, ordered by time. Unparseable entries are dropped.
func (p *Provider) Upcoming(station domain.Station, now time.Time) []domain.Departure {
	var table []string
	if route, ok := p.routeFor(station.Code); ok {
		table = route.TableFor(now.Weekday())
	} else {
		table = DefaultTimes()
	}
	return FilterAfter(table, now)
}

func (p *Provider) routeFor(stationCode string) (*Route, bool) {
	for i := range p.routes {
		if p.routes[i].Serves(stationCode) {
			return &p.routes[i], true
		}
	}
	return nil, false
}

// FilterAfter keeps the times strictly after now's hour and minute
func FilterAfter(times []string, now time.Time) []domain.Departure {
	current := now.Hour()*60 + now.Minute()

	type entry struct {
		minutes int
		value   domain.Departure
	}
	entries := make([]entry, 0, len(times))
	for _, t := range times {
		m, ok := ParseClock(t)
		if !ok || m <= current {
			continue
		}
		entries = append(entries, entry{minutes: m, value: domain.Departure(FormatClock(m))})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].minutes < entries[j].minutes
	})

	result := make([]domain.Departure, len(entries))
	for i, e := range entries {
		result[i] = e.value
	}
	return result
}

// ParseClock parses "HH:MM" to minutes since midnight
func ParseClock(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// At places a departure on now's calendar date, in now's location
func At(dep domain.Departure, now time.Time) (time.Time, bool) {
	m, ok := ParseClock(string(dep))
	if !ok {
		return time.Time{}, false
	}
	return time.Date(now.Year(), now.Month(), now.Day(), m/60, m%60, 0, 0, now.Location()), true
}

// MinutesUntil is the whole number of minutes from now until the departure
// today. Unparseable departures yield 0.
func MinutesUntil(dep domain.Departure, now time.Time) int {
	t, ok := At(dep, now)
	if !ok {
		return 0
	}
	d := t.Sub(now)
	minutes := int(d / time.Minute)
	if d < 0 && d%time.Minute != 0 {
		minutes--
	}
	return minutes
}
