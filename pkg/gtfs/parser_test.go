package gtfs

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testFeed = map[string]string{
	"routes.txt": "route_id,route_short_name,route_type\n" +
		"R1,1,3\n" +
		"R2,LW,2\n",
	"stops.txt": "\ufeffstop_id,stop_code,stop_name,stop_lat,stop_lon,location_type,parent_station\n" +
		"ST,,Union Station Bus Terminal,43.6452,-79.3806,1,\n" +
		"P1,,Union Platform 1,43.6453,-79.3807,0,ST\n" +
		"S2,S2C,Yorkdale Bus Terminal,43.7253,-79.4515,0,\n",
	"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
		"WK,1,1,1,1,1,0,0,20260101,20261231\n" +
		"WE,0,0,0,0,0,1,1,20260101,20261231\n",
	"calendar_dates.txt": "service_id,date,exception_type\n" +
		"X,20261017,1\n" +
		"Y,20261018,2\n",
	"trips.txt": "route_id,service_id,trip_id\n" +
		"R1,WK,T1\n" +
		"R1,WE,T2\n" +
		"R2,WK,T3\n" +
		"R1,X,T4\n" +
		"R1,Y,T5\n",
	"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
		"T1,07:59:00,08:00:00,P1,1\n" +
		"T1,8:15:00,8:15:00,S2,2\n" +
		"T1,25:10:00,25:10:00,S2,3\n" +
		"T2,09:00:00,09:00:00,P1,1\n" +
		"T3,10:00:00,10:00:00,S2,1\n" +
		"T4,11:05:00,,S2,1\n" +
		"T5,12:00:00,12:00:00,S2,1\n",
}

func buildFeed(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		w.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestParser_Parse(t *testing.T) {
	data := buildFeed(t, testFeed)
	reader, err := openZip(data)
	if err != nil {
		t.Fatal(err)
	}

	result, err := NewParser(discardLogger()).Parse(reader)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(result.Stops) != 2 {
		t.Fatalf("stops = %v, want ST and S2", result.Stops)
	}
	if s := result.Stops["ST"]; s == nil || s.Name != "Union Station Bus Terminal" || s.Lat != 43.6452 {
		t.Errorf("ST = %+v", s)
	}
	if s := result.Stops["S2"]; s == nil || s.Code != "S2C" {
		t.Errorf("S2 = %+v", s)
	}

	tests := []struct {
		stop string
		want Tables
	}{
		{"ST", Tables{Weekday: []string{"08:00"}, Saturday: []string{"09:00"}, Sunday: []string{"09:00"}}},
		{"S2", Tables{Weekday: []string{"08:15"}, Saturday: []string{"11:05"}, Sunday: []string{}}},
	}
	for _, tt := range tests {
		got := result.Tables[tt.stop]
		if got == nil || !reflect.DeepEqual(*got, tt.want) {
			t.Errorf("tables[%s] = %+v, want %+v", tt.stop, got, tt.want)
		}
	}
}

func TestParser_MissingFiles(t *testing.T) {
	tests := []struct {
		name string
		drop []string
	}{
		{"no stop times", []string{"stop_times.txt"}},
		{"no calendars", []string{"calendar.txt", "calendar_dates.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := make(map[string]string)
			for k, v := range testFeed {
				files[k] = v
			}
			for _, name := range tt.drop {
				delete(files, name)
			}
			reader, err := openZip(buildFeed(t, files))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := NewParser(discardLogger()).Parse(reader); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseGTFSTime(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"08:00:00", 480, true},
		{"8:05:30", 485, true},
		{"25:10:00", 1510, true},
		{"08:00", 0, false},
		{"xx:00:00", 0, false},
		{"08:61:00", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseGTFSTime(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseGTFSTime(%q) = %d, %v", tt.in, got, ok)
		}
	}
}

func TestLoad_FileWithCache(t *testing.T) {
	dir := t.TempDir()
	feedPath := filepath.Join(dir, "feed.zip")
	if err := os.WriteFile(feedPath, buildFeed(t, testFeed), 0o644); err != nil {
		t.Fatal(err)
	}
	cacheDir := filepath.Join(dir, "cache")

	first, err := Load(context.Background(), feedPath, cacheDir, discardLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cached, _ := filepath.Glob(filepath.Join(cacheDir, "gtfs_bus_*.gob.gz"))
	if len(cached) != 1 {
		t.Fatalf("cache files = %v", cached)
	}

	second, err := Load(context.Background(), feedPath, cacheDir, discardLogger())
	if err != nil {
		t.Fatalf("Load from cache: %v", err)
	}
	if !reflect.DeepEqual(first.Tables["ST"], second.Tables["ST"]) || len(second.Stops) != len(first.Stops) {
		t.Errorf("cached result differs: %+v vs %+v", second.Tables["ST"], first.Tables["ST"])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.zip"), "", discardLogger()); err == nil {
		t.Error("expected error")
	}
}

func TestParsedResultCache(t *testing.T) {
	dir := t.TempDir()
	want := &ParseResult{
		Stops:  map[string]*Stop{"ST": {ID: "ST", Code: "100", Name: "Terminal", Lat: 43.6, Lon: -79.4}},
		Tables: map[string]*Tables{"ST": {Weekday: []string{"08:00"}, Saturday: []string{"09:00"}}},
	}

	path, err := SaveParsedResult(dir, "abc", want)
	if err != nil {
		t.Fatalf("SaveParsedResult: %v", err)
	}
	got, gotPath, err := LoadParsedResult(dir, "abc")
	if err != nil {
		t.Fatalf("LoadParsedResult: %v", err)
	}
	if gotPath != path || !reflect.DeepEqual(got.Tables["ST"].Weekday, want.Tables["ST"].Weekday) {
		t.Errorf("got %+v from %s", got.Tables["ST"], gotPath)
	}

	if leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp")); len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}

	incomplete := &ParseResult{
		Stops:  map[string]*Stop{"ST": {ID: "ST"}, "S2": {ID: "S2"}},
		Tables: map[string]*Tables{"ST": {}},
	}
	if _, err := SaveParsedResult(dir, "partial", incomplete); err != nil {
		t.Fatalf("SaveParsedResult: %v", err)
	}
	if _, _, err := LoadParsedResult(dir, "partial"); err == nil {
		t.Error("expected error for a stop without departure tables")
	}
}
