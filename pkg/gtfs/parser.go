package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Stop is a boarding point or parent station with bus service
type Stop struct {
	ID   string
	Code string
	Name string
	Lat  float64
	Lon  float64
}

// Tables are the distinct departure clock times at one stop, "HH:MM"
// sorted ascending, per day type.
type Tables struct {
	Weekday  []string
	Saturday []string
	Sunday   []string
}

type ParseResult struct {
	Stops  map[string]*Stop   // stop_id -> Stop, only stops with departures
	Tables map[string]*Tables // stop_id -> departure tables
}

// day types as a bit set
const (
	dayWeekday uint8 = 1 << iota
	daySaturday
	daySunday
)

// parseState is the intermediate index built while reading the feed
type parseState struct {
	busRoutes map[string]bool
	stops     map[string]*stopRow
	services  map[string]uint8  // service_id -> day types
	trips     map[string]string // trip_id -> service_id, bus trips only
	times     map[string]*daySets
}

type stopRow struct {
	Stop
	parent string
}

type daySets [3]map[int]struct{}

func (d *daySets) add(days uint8, minutes int) {
	for i, bit := range []uint8{dayWeekday, daySaturday, daySunday} {
		if days&bit == 0 {
			continue
		}
		if d[i] == nil {
			d[i] = make(map[int]struct{})
		}
		d[i][minutes] = struct{}{}
	}
}

type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	return &Parser{
		logger: logger.With("component", "gtfs_parser"),
	}
}

// Parse reads the bus departures of a GTFS feed. Departures are grouped
// under the parent station when a stop has one. Times past 24:00 belong
// to the previous service day and are skipped.
func (p *Parser) Parse(reader *zip.Reader) (*ParseResult, error) {
	totalStart := time.Now()
	p.logger.Info("starting GTFS parsing")

	st := &parseState{
		busRoutes: make(map[string]bool),
		stops:     make(map[string]*stopRow),
		services:  make(map[string]uint8),
		trips:     make(map[string]string),
		times:     make(map[string]*daySets),
	}

	fileMap := make(map[string]*zip.File)
	for _, file := range reader.File {
		fileMap[file.Name] = file
	}

	for _, name := range []string{"routes.txt", "stops.txt", "trips.txt", "stop_times.txt"} {
		if _, ok := fileMap[name]; !ok {
			return nil, fmt.Errorf("feed is missing %s", name)
		}
	}
	if fileMap["calendar.txt"] == nil && fileMap["calendar_dates.txt"] == nil {
		return nil, fmt.Errorf("feed has neither calendar.txt nor calendar_dates.txt")
	}

	steps := []struct {
		name  string
		parse func(*csv.Reader, map[string]int, *parseState) error
	}{
		{"routes.txt", parseRoutes},
		{"stops.txt", parseStops},
		{"calendar.txt", parseCalendar},
		{"calendar_dates.txt", parseCalendarDates},
		{"trips.txt", parseTrips},
		{"stop_times.txt", parseStopTimes},
	}

	for _, step := range steps {
		file, ok := fileMap[step.name]
		if !ok {
			continue
		}
		start := time.Now()
		if err := readCSV(file, st, step.parse); err != nil {
			return nil, fmt.Errorf("parse %s: %w", step.name, err)
		}
		p.logger.Debug("parsed "+step.name, "duration_ms", time.Since(start).Milliseconds())
	}

	result := st.result()

	p.logger.Info("GTFS parsing completed",
		"total_duration_ms", time.Since(totalStart).Milliseconds(),
		"bus_routes", len(st.busRoutes),
		"bus_trips", len(st.trips),
		"stops_with_departures", len(result.Stops),
	)

	return result, nil
}

func readCSV(file *zip.File, st *parseState, parse func(*csv.Reader, map[string]int, *parseState) error) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		return err
	}

	return parse(r, makeIndex(header), st)
}

// isBusRouteType accepts the basic bus type and the extended bus range
func isBusRouteType(t int) bool {
	return t == 3 || (t >= 700 && t < 800)
}

func parseRoutes(r *csv.Reader, idx map[string]int, st *parseState) error {
	return eachRecord(r, func(record []string) {
		routeType, err := strconv.Atoi(getField(record, idx, "route_type"))
		if err != nil || !isBusRouteType(routeType) {
			return
		}
		st.busRoutes[getField(record, idx, "route_id")] = true
	})
}

func parseStops(r *csv.Reader, idx map[string]int, st *parseState) error {
	return eachRecord(r, func(record []string) {
		lat, _ := strconv.ParseFloat(getField(record, idx, "stop_lat"), 64)
		lon, _ := strconv.ParseFloat(getField(record, idx, "stop_lon"), 64)

		row := &stopRow{
			Stop: Stop{
				ID:   getField(record, idx, "stop_id"),
				Code: getField(record, idx, "stop_code"),
				Name: getField(record, idx, "stop_name"),
				Lat:  lat,
				Lon:  lon,
			},
			parent: getField(record, idx, "parent_station"),
		}
		if row.ID != "" {
			st.stops[row.ID] = row
		}
	})
}

var weekdayColumns = []struct {
	column string
	day    uint8
}{
	{"monday", dayWeekday},
	{"tuesday", dayWeekday},
	{"wednesday", dayWeekday},
	{"thursday", dayWeekday},
	{"friday", dayWeekday},
	{"saturday", daySaturday},
	{"sunday", daySunday},
}

func parseCalendar(r *csv.Reader, idx map[string]int, st *parseState) error {
	return eachRecord(r, func(record []string) {
		serviceID := getField(record, idx, "service_id")
		for _, wc := range weekdayColumns {
			if getField(record, idx, wc.column) == "1" {
				st.services[serviceID] |= wc.day
			}
		}
	})
}

// parseCalendarDates adds the day type of every added service date
func parseCalendarDates(r *csv.Reader, idx map[string]int, st *parseState) error {
	return eachRecord(r, func(record []string) {
		if getField(record, idx, "exception_type") != "1" {
			return
		}
		date, err := time.Parse("20060102", getField(record, idx, "date"))
		if err != nil {
			return
		}
		serviceID := getField(record, idx, "service_id")
		switch date.Weekday() {
		case time.Saturday:
			st.services[serviceID] |= daySaturday
		case time.Sunday:
			st.services[serviceID] |= daySunday
		default:
			st.services[serviceID] |= dayWeekday
		}
	})
}

func parseTrips(r *csv.Reader, idx map[string]int, st *parseState) error {
	return eachRecord(r, func(record []string) {
		if !st.busRoutes[getField(record, idx, "route_id")] {
			return
		}
		tripID := getField(record, idx, "trip_id")
		if tripID != "" {
			st.trips[tripID] = getField(record, idx, "service_id")
		}
	})
}

func parseStopTimes(r *csv.Reader, idx map[string]int, st *parseState) error {
	return eachRecord(r, func(record []string) {
		serviceID, ok := st.trips[getField(record, idx, "trip_id")]
		if !ok {
			return
		}
		days := st.services[serviceID]
		if days == 0 {
			return
		}

		clock := getField(record, idx, "departure_time")
		if clock == "" {
			clock = getField(record, idx, "arrival_time")
		}
		minutes, ok := parseGTFSTime(clock)
		if !ok || minutes >= 24*60 {
			return
		}

		stopID := st.stationFor(getField(record, idx, "stop_id"))
		if stopID == "" {
			return
		}
		sets := st.times[stopID]
		if sets == nil {
			sets = &daySets{}
			st.times[stopID] = sets
		}
		sets.add(days, minutes)
	})
}

// stationFor resolves a stop to its parent station, if any
func (st *parseState) stationFor(stopID string) string {
	row, ok := st.stops[stopID]
	if !ok {
		return ""
	}
	if row.parent != "" {
		if _, ok := st.stops[row.parent]; ok {
			return row.parent
		}
	}
	return stopID
}

func (st *parseState) result() *ParseResult {
	result := &ParseResult{
		Stops:  make(map[string]*Stop, len(st.times)),
		Tables: make(map[string]*Tables, len(st.times)),
	}
	for stopID, sets := range st.times {
		stop := st.stops[stopID].Stop
		result.Stops[stopID] = &stop
		result.Tables[stopID] = &Tables{
			Weekday:  clockList(sets[0]),
			Saturday: clockList(sets[1]),
			Sunday:   clockList(sets[2]),
		}
	}
	return result
}

func clockList(set map[int]struct{}) []string {
	minutes := make([]int, 0, len(set))
	for m := range set {
		minutes = append(minutes, m)
	}
	sort.Ints(minutes)

	out := make([]string, len(minutes))
	for i, m := range minutes {
		out[i] = fmt.Sprintf("%02d:%02d", m/60, m%60)
	}
	return out
}

// parseGTFSTime reads H:MM:SS or HH:MM:SS into minutes after midnight of
// the service day; values past 24:00 are allowed.
func parseGTFSTime(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func eachRecord(r *csv.Reader, fn func(record []string)) error {
	for {
		record, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fn(record)
	}
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		// Some feeds start with a UTF-8 byte order mark
		idx[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
