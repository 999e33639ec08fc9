package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"routeiq/internal/domain"
)

type StatsReader interface {
	Get(ctx context.Context) (domain.LifetimeStats, error)
}

type AlertSource interface {
	Alerts() []domain.Alert
}

type StatsHandler struct {
	stats  StatsReader
	alerts AlertSource
	logger *slog.Logger
}

func NewStatsHandler(stats StatsReader, alerts AlertSource, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		alerts: alerts,
		logger: logger.With("handler", "stats"),
	}
}

type AlertsResponse struct {
	Alerts     []domain.Alert `json:"alerts"`
	Count      int            `json:"count"`
	ServerTime time.Time      `json:"server_time"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Get(r.Context())
	if err != nil {
		h.logger.Warn("failed to read stats", "error", err)
		respondError(w, http.StatusServiceUnavailable, "stats unavailable")
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	respondJSON(w, http.StatusOK, stats)
}

func (h *StatsHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	var alerts []domain.Alert
	if h.alerts != nil {
		alerts = h.alerts.Alerts()
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}

	respondJSON(w, http.StatusOK, AlertsResponse{
		Alerts:     alerts,
		Count:      len(alerts),
		ServerTime: time.Now(),
	})
}
