package geo

import (
	"sort"

	"routeiq/internal/domain"
)

// NearestStations returns up to limit stations ordered by ascending
// distance from point. Equal distances keep registry order.
func NearestStations(point domain.LatLng, stations []domain.Station, limit int) []domain.StationDistance {
	if limit <= 0 || len(stations) == 0 {
		return []domain.StationDistance{}
	}

	ranked := make([]domain.StationDistance, 0, len(stations))
	for _, s := range stations {
		ranked = append(ranked, domain.StationDistance{
			Station:    s,
			DistanceKm: Distance(point, s.Location()),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Nearest returns the single closest station, or false for an empty registry
func Nearest(point domain.LatLng, stations []domain.Station) (domain.StationDistance, bool) {
	ranked := NearestStations(point, stations, 1)
	if len(ranked) == 0 {
		return domain.StationDistance{}, false
	}
	return ranked[0], true
}
