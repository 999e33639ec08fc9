package cache

import (
	"fmt"

	"routeiq/internal/domain"
)

const (
	KeyStatTrips     = "stats:trips"
	KeyStatTimeSaved = "stats:time_saved"
	KeyStatCO2Saved  = "stats:co2_saved"
	KeyStatReroutes  = "stats:reroutes"
	KeyServiceAlerts = "alerts:service"
)

func KeyDirections(origin, destination domain.Place, mode domain.TravelMode) string {
	return fmt.Sprintf("directions:%s:%s:%s", mode, origin.Query(), destination.Query())
}
