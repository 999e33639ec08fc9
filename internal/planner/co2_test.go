package planner

import (
	"math"
	"testing"

	"routeiq/internal/domain"
)

func TestEstimateCO2(t *testing.T) {
	tests := []struct {
		name string
		km   float64
		mode domain.TravelMode
		want float64
	}{
		{"bicycling", 10, domain.TravelModeBicycling, 1.9},
		{"walking", 10, domain.TravelModeWalking, 1.9},
		{"transit", 10, domain.TravelModeTransit, 1.4},
		{"driving", 10, domain.TravelModeDriving, 1.9},
		{"unknown mode", 10, domain.TravelMode("HOVERCRAFT"), 0},
		{"zero distance", 0, domain.TravelModeWalking, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateCO2(tt.km, tt.mode)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EstimateCO2(%v, %s) = %v, want %v", tt.km, tt.mode, got, tt.want)
			}
		})
	}
}

func TestParseDistance(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"3.7 km", 3.7},
		{"garbage", 0},
		{"", 0},
		{"12 km", 12},
		{"about 0.5 km away", 0.5},
		{"1,200 m", 1},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseDistance(tt.in); got != tt.want {
				t.Errorf("ParseDistance(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLegDistanceKm_PrefersNumericDistance(t *testing.T) {
	leg := &domain.Leg{Distance: "800 m", DistanceKm: 0.8}
	if got := legDistanceKm(leg); got != 0.8 {
		t.Errorf("legDistanceKm = %v, want 0.8", got)
	}

	leg = &domain.Leg{Distance: "3.7 km"}
	if got := legDistanceKm(leg); got != 3.7 {
		t.Errorf("legDistanceKm = %v, want 3.7", got)
	}

	if got := legDistanceKm(nil); got != 0 {
		t.Errorf("legDistanceKm(nil) = %v, want 0", got)
	}
}
