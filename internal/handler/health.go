package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"routeiq/internal/ingestor"
	"routeiq/internal/store"
)

type HealthHandler struct {
	ingestor *ingestor.Ingestor
	store    *store.Store
	stations int
}

func NewHealthHandler(ing *ingestor.Ingestor, s *store.Store, stations int) *HealthHandler {
	return &HealthHandler{
		ingestor: ing,
		store:    s,
		stations: stations,
	}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready        bool      `json:"ready"`
	StationCount int       `json:"station_count"`
	SessionCount int       `json:"session_count"`
	ServerTime   time.Time `json:"server_time"`
}

// Readyz reports ready once the station registry is populated and the
// first service update poll has finished, successful or not.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ready := h.stations > 0 && (h.ingestor == nil || h.ingestor.IsReady())
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ReadyResponse{
		Ready:        ready,
		StationCount: h.stations,
		SessionCount: h.store.Count(),
		ServerTime:   time.Now(),
	})
}
