package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"routeiq/internal/domain"
	"routeiq/internal/handler"
	"routeiq/internal/planner"
)

func TestAPIClient_PlanFlow(t *testing.T) {
	var gotSearch planner.SearchRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(handler.SessionResponse{ID: "s-1"})
	})
	mux.HandleFunc("POST /v1/sessions/{id}/search", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "s-1" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&gotSearch)
		json.NewEncoder(w).Encode(handler.SearchResponse{
			Outcome: planner.SearchOK,
			Candidates: []*domain.RouteCandidate{
				{Station: domain.Station{Code: "UN", Name: "Union Bus Terminal"}, Departure: "12:30", TotalDuration: 29, Traffic: domain.TrafficLow, CO2Kg: 0.27},
			},
			Total:  1,
			Active: 0,
			Plan:   &planner.DeparturePlan{Message: "You should leave by 12:08 to catch the 12:30 bus."},
		})
	})
	mux.HandleFunc("POST /v1/sessions/{id}/select", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "candidate index out of range"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newAPIClient(srv.URL+"/", 5*time.Second)
	ctx := context.Background()

	id, err := c.CreateSession(ctx)
	if err != nil || id != "s-1" {
		t.Fatalf("CreateSession = %q, %v", id, err)
	}

	resp, err := c.Search(ctx, id, planner.SearchRequest{OriginStation: "UN", Destination: domain.Place{Address: "Yorkdale"}, Mode: domain.TravelModeWalking})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotSearch.OriginStation != "UN" || gotSearch.Destination.Address != "Yorkdale" || gotSearch.Mode != domain.TravelModeWalking {
		t.Errorf("server saw %+v", gotSearch)
	}

	var out bytes.Buffer
	printSearch(&out, id, resp)
	for _, want := range []string{"Session s-1", "Union Bus Terminal", "12:30", "29 min", "leave by 12:08"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	_, err = c.Select(ctx, id, handler.SelectRequest{Index: 9})
	if err == nil || !strings.Contains(err.Error(), "candidate index out of range") {
		t.Errorf("Select error = %v", err)
	}
}

func TestParseLatLng(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.LatLng
		wantErr bool
	}{
		{"43.65,-79.38", domain.LatLng{Lat: 43.65, Lng: -79.38}, false},
		{" 43.65 , -79.38 ", domain.LatLng{Lat: 43.65, Lng: -79.38}, false},
		{"43.65", domain.LatLng{}, true},
		{"north,-79.38", domain.LatLng{}, true},
		{"43.65,west", domain.LatLng{}, true},
	}
	for _, tt := range tests {
		got, err := parseLatLng(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLatLng(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLatLng(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestPrintSelection(t *testing.T) {
	sel := &planner.Selection{
		Candidate: &domain.RouteCandidate{Summary: "Walking to Union Bus Terminal (1.4 km) • Bus at 12:30"},
		Plan:      &planner.DeparturePlan{Message: "You should leave by 12:08 to catch the 12:30 bus."},
		Board: []planner.BoardEntry{
			{Departure: "12:30", MinutesUntil: 15, Next: true},
			{Departure: "13:00", MinutesUntil: 45},
		},
	}

	var out bytes.Buffer
	printSelection(&out, sel)
	got := out.String()
	if !strings.Contains(got, "12:30  in 15 min  next") || !strings.Contains(got, "13:00  in 45 min\n") {
		t.Errorf("output:\n%s", got)
	}

	out.Reset()
	sel.Board = nil
	printSelection(&out, sel)
	if !strings.Contains(out.String(), "No more departures today.") {
		t.Errorf("output:\n%s", out.String())
	}
}
