package domain

import "time"

// LifetimeStats are counters persisted across sessions
type LifetimeStats struct {
	Trips     int64   `json:"trips"`
	TimeSaved int64   `json:"time_saved"`
	CO2Saved  float64 `json:"co2_saved"`
	Reroutes  int64   `json:"reroutes"`
}

type AlertType string

const (
	AlertInfo    AlertType = "info"
	AlertWarning AlertType = "warning"
	AlertError   AlertType = "error"
)

// Alert is a user-facing notification
type Alert struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
