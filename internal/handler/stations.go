package handler

import (
	"net/http"
	"strconv"

	"routeiq/internal/domain"
	"routeiq/internal/geo"
	"routeiq/internal/planner"
)

// maxNearby caps the limit parameter of the nearby query
const maxNearby = 20

type StationsHandler struct {
	stations planner.StationSource
}

func NewStationsHandler(stations planner.StationSource) *StationsHandler {
	return &StationsHandler{stations: stations}
}

type StationsResponse struct {
	Stations []domain.Station `json:"stations"`
	Count    int              `json:"count"`
}

type NearbyResponse struct {
	Stations []domain.StationDistance `json:"stations"`
	Count    int                      `json:"count"`
}

func (h *StationsHandler) List(w http.ResponseWriter, r *http.Request) {
	stations := h.stations.Stations()
	respondJSON(w, http.StatusOK, StationsResponse{
		Stations: stations,
		Count:    len(stations),
	})
}

func (h *StationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	station, ok := h.stations.Station(r.PathValue("code"))
	if !ok {
		respondError(w, http.StatusNotFound, "station not found")
		return
	}
	respondJSON(w, http.StatusOK, station)
}

func (h *StationsHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		respondError(w, http.StatusBadRequest, "invalid lat parameter")
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		respondError(w, http.StatusBadRequest, "invalid lng parameter")
		return
	}

	limit := planner.NearbyStations
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = min(limit, maxNearby)
	}

	nearby := geo.NearestStations(domain.LatLng{Lat: lat, Lng: lng}, h.stations.Stations(), limit)
	respondJSON(w, http.StatusOK, NearbyResponse{
		Stations: nearby,
		Count:    len(nearby),
	})
}
