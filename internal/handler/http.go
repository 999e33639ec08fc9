package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"routeiq/internal/planner"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondErr writes err with the status it maps to
func respondErr(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, planner.ErrMissingOrigin),
		errors.Is(err, planner.ErrMissingDestination),
		errors.Is(err, planner.ErrInvalidMode),
		errors.Is(err, planner.ErrOriginNotLocated),
		errors.Is(err, planner.ErrInvalidIndex),
		errors.Is(err, planner.ErrInvalidDeparture):
		return http.StatusBadRequest
	case errors.Is(err, planner.ErrUnknownStation):
		return http.StatusNotFound
	case errors.Is(err, planner.ErrStaleSearch),
		errors.Is(err, planner.ErrNoSelection):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON object from the request body. An empty
// body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
