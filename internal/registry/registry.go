package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"routeiq/internal/domain"
	"routeiq/internal/schedule"
	"routeiq/pkg/gtfs"
)

//go:embed stations.yaml
var defaultData []byte

type file struct {
	Stations []domain.Station `yaml:"stations"`
	Routes   []schedule.Route `yaml:"routes"`
}

// Registry holds the stations and bus route tables loaded at startup. It is
// read-only once loaded.
type Registry struct {
	stations []domain.Station
	byCode   map[string]domain.Station
	routes   []schedule.Route
	source   string
	loadedAt time.Time
}

// Load reads path when set and the embedded default otherwise
func Load(path string) (*Registry, error) {
	if path == "" {
		return Parse(defaultData, "embedded")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stations file: %w", err)
	}
	return Parse(data, path)
}

func Default() *Registry {
	r, err := Parse(defaultData, "embedded")
	if err != nil {
		panic(fmt.Sprintf("embedded registry is invalid: %v", err))
	}
	return r
}

func Parse(data []byte, source string) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}
	return build(f.Stations, f.Routes, source)
}

// FromGTFS builds a registry from the bus stops of a parsed GTFS feed. Each
// stop gets its own route carrying that stop's departure tables.
func FromGTFS(feed *gtfs.ParseResult, source string) (*Registry, error) {
	ids := make([]string, 0, len(feed.Stops))
	for id := range feed.Stops {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	stations := make([]domain.Station, 0, len(ids))
	routes := make([]schedule.Route, 0, len(ids))
	for _, id := range ids {
		stop := feed.Stops[id]
		code := stop.Code
		if code == "" {
			code = stop.ID
		}
		stations = append(stations, domain.Station{
			Code: code,
			Name: stop.Name,
			Lat:  stop.Lat,
			Lng:  stop.Lon,
			Type: domain.StationTypeBus,
		})
		if t := feed.Tables[id]; t != nil {
			routes = append(routes, schedule.Route{
				Name:     stop.Name,
				Stations: []string{code},
				Weekday:  t.Weekday,
				Saturday: t.Saturday,
				Sunday:   t.Sunday,
			})
		}
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("%s has no bus stops with departures", source)
	}
	return build(stations, routes, source)
}

func build(stations []domain.Station, routes []schedule.Route, source string) (*Registry, error) {
	byCode := make(map[string]domain.Station, len(stations))
	for i, s := range stations {
		if s.Code == "" {
			return nil, fmt.Errorf("station %d in %s has no code", i, source)
		}
		code := strings.ToUpper(s.Code)
		if _, dup := byCode[code]; dup {
			return nil, fmt.Errorf("duplicate station code %s in %s", s.Code, source)
		}
		if s.Lat < -90 || s.Lat > 90 || s.Lng < -180 || s.Lng > 180 {
			return nil, fmt.Errorf("station %s in %s has invalid coordinates", s.Code, source)
		}
		byCode[code] = s
	}

	for _, route := range routes {
		for _, tbl := range [][]string{route.Weekday, route.Saturday, route.Sunday} {
			for _, t := range tbl {
				if _, ok := schedule.ParseClock(t); !ok {
					return nil, fmt.Errorf("route %q in %s has invalid time %q", route.Name, source, t)
				}
			}
		}
	}

	return &Registry{
		stations: stations,
		byCode:   byCode,
		routes:   routes,
		source:   source,
		loadedAt: time.Now(),
	}, nil
}

// Stations returns the stations in file order
func (r *Registry) Stations() []domain.Station {
	result := make([]domain.Station, len(r.stations))
	copy(result, r.stations)
	return result
}

// Station looks a station up by code, ignoring case
func (r *Registry) Station(code string) (domain.Station, bool) {
	s, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return s, ok
}

func (r *Registry) Routes() []schedule.Route {
	result := make([]schedule.Route, len(r.routes))
	copy(result, r.routes)
	return result
}

func (r *Registry) Count() int {
	return len(r.stations)
}

func (r *Registry) Source() string {
	return r.source
}

func (r *Registry) LoadedAt() time.Time {
	return r.loadedAt
}
