package domain

import "fmt"

// StationType is the service mix at a station as published in the registry
type StationType string

const (
	StationTypeBus   StationType = "Bus"
	StationTypeTrain StationType = "Train"
	StationTypeMixed StationType = "Train & Bus"
)

// Station is an immutable transit station loaded at startup
type Station struct {
	Code string      `json:"code" yaml:"code"`
	Name string      `json:"name" yaml:"name"`
	Lat  float64     `json:"lat" yaml:"lat"`
	Lng  float64     `json:"lng" yaml:"lng"`
	Type StationType `json:"type" yaml:"type"`
}

func (s Station) Location() LatLng {
	return LatLng{Lat: s.Lat, Lng: s.Lng}
}

// StationDistance is a station annotated with its distance to a query point
type StationDistance struct {
	Station    Station `json:"station"`
	DistanceKm float64 `json:"distance_km"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Lat, l.Lng)
}

// Place is either a free-form address, a coordinate, or both.
type Place struct {
	Address  string  `json:"address,omitempty"`
	Location *LatLng `json:"location,omitempty"`
}

func PlaceAt(loc LatLng) Place {
	return Place{Location: &loc}
}

func (p Place) IsZero() bool {
	return p.Address == "" && p.Location == nil
}

// Query renders the place the way directions providers accept it,
// preferring coordinates over the address.
func (p Place) Query() string {
	if p.Location != nil {
		return p.Location.String()
	}
	return p.Address
}
