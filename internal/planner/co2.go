package planner

import (
	"regexp"
	"strconv"

	"routeiq/internal/domain"
)

// Average emissions per kilometer
const (
	CarKgPerKm     = 0.19
	TransitKgPerKm = 0.05
)

// EstimateCO2 returns the CO2 delta in kilograms for travelling distanceKm
// in mode. Zero-emission modes save the full car emissions and transit saves
// the difference to driving. For driving the same car figure is returned but
// it means emissions generated, not avoided.
func EstimateCO2(distanceKm float64, mode domain.TravelMode) float64 {
	switch mode {
	case domain.TravelModeWalking, domain.TravelModeBicycling:
		return distanceKm * CarKgPerKm
	case domain.TravelModeTransit:
		return distanceKm * (CarKgPerKm - TransitKgPerKm)
	case domain.TravelModeDriving:
		return distanceKm * CarKgPerKm
	default:
		return 0
	}
}

var leadingNumber = regexp.MustCompile(`(\d+\.?\d*)`)

// ParseDistance extracts the first numeric token of a distance text such as
// "3.7 km". Text without a number yields 0.
func ParseDistance(s string) float64 {
	match := leadingNumber.FindStringSubmatch(s)
	if match == nil {
		return 0
	}
	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// legDistanceKm prefers the provider's numeric distance and falls back to
// parsing the display text.
func legDistanceKm(leg *domain.Leg) float64 {
	if leg == nil {
		return 0
	}
	if leg.DistanceKm > 0 {
		return leg.DistanceKm
	}
	return ParseDistance(leg.Distance)
}
