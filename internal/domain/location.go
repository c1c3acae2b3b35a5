package domain

import "strings"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Address holds the city/state/country triple reported by the location
// directory. Any field may be empty.
type Address struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// ChargingLocation is one entry of the external charging-location directory.
// It is an immutable snapshot: never mutated and never persisted on its own.
// A visit stores a denormalized copy at the moment the user selects it.
type ChargingLocation struct {
	Name          string       `json:"name"`
	Address       Address      `json:"address"`
	Coordinates   *Coordinates `json:"gps,omitempty"`
	StallCount    int          `json:"stallCount,omitempty"`
	PowerKilowatt int          `json:"powerKilowatt,omitempty"`
}

// DisplayName renders the location as "Name, City, State (Country)",
// skipping address parts that are empty.
func (l ChargingLocation) DisplayName() string {
	var b strings.Builder
	b.WriteString(l.Name)
	if l.Address.City != "" {
		b.WriteString(", ")
		b.WriteString(l.Address.City)
	}
	if l.Address.State != "" {
		b.WriteString(", ")
		b.WriteString(l.Address.State)
	}
	if l.Address.Country != "" {
		b.WriteString(" (")
		b.WriteString(l.Address.Country)
		b.WriteString(")")
	}
	return b.String()
}
