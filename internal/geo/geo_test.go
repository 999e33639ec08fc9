package geo

import (
	"math"
	"testing"

	"routeiq/internal/domain"
)

var testStations = []domain.Station{
	{Code: "UN", Name: "Union Bus Terminal", Lat: 43.6452, Lng: -79.3806, Type: domain.StationTypeBus},
	{Code: "YD", Name: "Yorkdale Bus Terminal", Lat: 43.7253, Lng: -79.4515, Type: domain.StationTypeBus},
	{Code: "OK", Name: "Oakville GO Bus Terminal", Lat: 43.4667, Lng: -79.6833, Type: domain.StationTypeBus},
	{Code: "HA", Name: "Hamilton GO Centre", Lat: 43.2557, Lng: -79.8711, Type: domain.StationTypeMixed},
}

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lon1 float64
		lat2, lon2 float64
		want       float64
		tolerance  float64
	}{
		{"same point", 43.6452, -79.3806, 43.6452, -79.3806, 0, 1e-9},
		{"one degree of latitude", 0, 0, 1, 0, 111.19, 0.01},
		{"union to hamilton", 43.6452, -79.3806, 43.2557, -79.8711, 58.7, 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := HaversineKm(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if math.Abs(got-tc.want) > tc.tolerance {
				t.Errorf("HaversineKm() = %.4f, want %.4f (±%.4f)", got, tc.want, tc.tolerance)
			}
		})
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	a := HaversineKm(43.6452, -79.3806, 43.7253, -79.4515)
	b := HaversineKm(43.7253, -79.4515, 43.6452, -79.3806)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance is not symmetric: %f vs %f", a, b)
	}
}

func TestNearestStations_Ordering(t *testing.T) {
	// Just north of Union Station
	point := domain.LatLng{Lat: 43.65, Lng: -79.38}

	ranked := NearestStations(point, testStations, 3)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 stations, got %d", len(ranked))
	}

	if ranked[0].Station.Code != "UN" {
		t.Errorf("expected UN to be nearest, got %s", ranked[0].Station.Code)
	}
	if ranked[1].Station.Code != "YD" {
		t.Errorf("expected YD second, got %s", ranked[1].Station.Code)
	}

	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].DistanceKm > ranked[i].DistanceKm {
			t.Errorf("stations not in ascending distance at %d: %f > %f", i, ranked[i-1].DistanceKm, ranked[i].DistanceKm)
		}
	}
}

func TestNearestStations_LimitLargerThanRegistry(t *testing.T) {
	ranked := NearestStations(domain.LatLng{Lat: 43.5, Lng: -79.6}, testStations, 10)
	if len(ranked) != len(testStations) {
		t.Errorf("expected %d stations, got %d", len(testStations), len(ranked))
	}
}

func TestNearestStations_EmptyRegistry(t *testing.T) {
	ranked := NearestStations(domain.LatLng{Lat: 43.5, Lng: -79.6}, nil, 5)
	if ranked == nil || len(ranked) != 0 {
		t.Errorf("expected empty non-nil result, got %v", ranked)
	}

	if _, ok := Nearest(domain.LatLng{}, nil); ok {
		t.Error("Nearest should report false for an empty registry")
	}
}

func TestNearestStations_DoesNotMutateInput(t *testing.T) {
	input := make([]domain.Station, len(testStations))
	copy(input, testStations)

	NearestStations(domain.LatLng{Lat: 43.25, Lng: -79.87}, input, 2)

	for i := range input {
		if input[i] != testStations[i] {
			t.Fatalf("input slice reordered at %d", i)
		}
	}
}
