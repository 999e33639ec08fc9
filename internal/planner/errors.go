package planner

import "errors"

var (
	ErrMissingOrigin      = errors.New("origin is required")
	ErrMissingDestination = errors.New("destination is required")
	ErrInvalidMode        = errors.New("unsupported travel mode")
	ErrUnknownStation     = errors.New("unknown station")
	ErrOriginNotLocated   = errors.New("origin could not be located")
	ErrNoStations         = errors.New("no stations found")
	ErrNoRoutes           = errors.New("no routes found")
	ErrStaleSearch        = errors.New("search superseded by a newer one")
	ErrInvalidIndex       = errors.New("candidate index out of range")
	ErrNoSelection        = errors.New("no candidate selected")
	ErrInvalidDeparture   = errors.New("invalid departure time")
)
