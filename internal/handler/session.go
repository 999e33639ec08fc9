package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"routeiq/internal/assistant"
	"routeiq/internal/domain"
	"routeiq/internal/hub"
	"routeiq/internal/planner"
	"routeiq/internal/store"
)

type Publisher interface {
	Publish(topic, eventType string, payload any)
}

type SessionHandler struct {
	store      *store.Store
	controller *planner.Controller
	schedules  planner.ScheduleProvider
	assistant  *assistant.Assistant
	publisher  Publisher
	now        func() time.Time
	logger     *slog.Logger
}

func NewSessionHandler(s *store.Store, controller *planner.Controller, schedules planner.ScheduleProvider, a *assistant.Assistant, publisher Publisher, now func() time.Time, logger *slog.Logger) *SessionHandler {
	if now == nil {
		now = time.Now
	}
	return &SessionHandler{
		store:      s,
		controller: controller,
		schedules:  schedules,
		assistant:  a,
		publisher:  publisher,
		now:        now,
		logger:     logger.With("handler", "session"),
	}
}

type SessionResponse struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	State     planner.StateSnapshot `json:"state"`
	Alerts    []domain.Alert        `json:"alerts"`
}

type SearchResponse struct {
	Generation uint64                   `json:"generation"`
	Outcome    planner.SearchOutcome    `json:"outcome"`
	Candidates []*domain.RouteCandidate `json:"candidates"`
	Total      int                      `json:"total"`
	Active     int                      `json:"active"`
	Plan       *planner.DeparturePlan   `json:"plan,omitempty"`
	Traffic    planner.TrafficTally     `json:"traffic"`
}

type SelectRequest struct {
	Index     int              `json:"index"`
	Departure domain.Departure `json:"departure,omitempty"`
}

type AssistantRequest struct {
	Message string `json:"message"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Create()
	h.logger.Debug("session created", "session_id", sess.ID)
	respondJSON(w, http.StatusCreated, h.sessionResponse(sess))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.sessionResponse(sess))
}

func (h *SessionHandler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req planner.SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.controller.Search(r.Context(), sess.State, req)
	if err != nil {
		h.logger.Debug("search rejected", "session_id", sess.ID, "error", err)
		respondErr(w, err)
		return
	}
	sess.SetTrip(describe(req.Origin, req.OriginStation), describe(req.Destination, req.DestinationStation))

	resp := SearchResponse{
		Generation: result.Generation,
		Outcome:    result.Outcome,
		Candidates: result.Displayed,
		Total:      len(result.Candidates),
		Active:     result.Active,
		Plan:       result.Plan,
		Traffic:    result.Traffic,
	}

	switch result.Outcome {
	case planner.SearchOK:
		h.publish(sess, hub.EventSearch, resp)
		if result.Plan != nil {
			h.alert(sess, domain.AlertInfo, "Leave by", result.Plan.Message)
		}
	case planner.SearchNoStations:
		h.alert(sess, domain.AlertWarning, "No Stations", "Could not find suitable stations.")
	default:
		h.alert(sess, domain.AlertWarning, "No Routes Found", "Could not find suitable routes. Try different options.")
	}

	h.logger.Debug("search response",
		"session_id", sess.ID,
		"outcome", result.Outcome,
		"candidates", len(result.Candidates),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	respondJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SelectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sel, err := h.controller.Select(r.Context(), sess.State, req.Index, req.Departure)
	if err != nil {
		respondErr(w, err)
		return
	}

	h.publish(sess, hub.EventSelection, sel)
	if sel.Plan != nil {
		h.alert(sess, domain.AlertInfo, "Leave by", sel.Plan.Message)
	}
	respondJSON(w, http.StatusOK, sel)
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SelectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	nav, err := h.controller.Start(r.Context(), sess.State, req.Index)
	if err != nil {
		respondErr(w, err)
		return
	}

	h.publish(sess, hub.EventSelection, nav)
	h.alert(sess, domain.AlertInfo, "Navigation Active", nav.Message)
	respondJSON(w, http.StatusOK, nav)
}

func (h *SessionHandler) Departures(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	sel, err := h.controller.Departures(sess.State)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sel)
}

func (h *SessionHandler) Assistant(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AssistantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	now := h.now()
	snap := sess.State.Snapshot()
	var upcoming []domain.Departure
	if c, ok := snap.ActiveCandidate(); ok {
		upcoming = h.schedules.Upcoming(c.Station, now)
	}
	tc := assistant.BuildContext(snap, upcoming, now)
	tc.Origin, tc.Destination = sess.Trip()

	respondJSON(w, http.StatusOK, h.assistant.Reply(r.Context(), sess.Conversation, message, tc))
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing session id")
		return nil, false
	}
	sess, ok := h.store.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func (h *SessionHandler) sessionResponse(sess *store.Session) SessionResponse {
	return SessionResponse{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		State:     sess.State.Snapshot(),
		Alerts:    sess.Alerts(),
	}
}

func (h *SessionHandler) alert(sess *store.Session, alertType domain.AlertType, title, message string) {
	a := sess.AddAlert(alertType, title, message)
	h.publish(sess, hub.EventAlert, a)
}

func (h *SessionHandler) publish(sess *store.Session, eventType string, payload any) {
	if h.publisher == nil {
		return
	}
	h.publisher.Publish(sess.ID, eventType, payload)
}

func describe(p domain.Place, stationCode string) string {
	if stationCode != "" {
		return stationCode
	}
	if p.Address != "" {
		return p.Address
	}
	return p.Query()
}
