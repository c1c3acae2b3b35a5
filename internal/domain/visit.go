// Package domain contains the core data types for the charging-visit tracker.
// This package has zero external dependencies and is imported by every other
// internal package (store, tracker, porter, handler).
package domain

import "time"

// DateFormat is the calendar-date layout used for Visit.VisitDate.
// Visits carry a date only, never a time of day.
const DateFormat = "2006-01-02"

// Visit records one stop at a charging location.
// IDs are opaque strings assigned by the document store on creation and are
// unique within a single user's visit set.
type Visit struct {
	ID string `json:"id"`

	// VehicleID references the vehicle the visit is attributed to.
	// Empty means unassigned. The reference may dangle after the vehicle is
	// deleted; dangling references are shown as unassigned, never removed.
	VehicleID string `json:"vehicleId,omitempty"`

	// LocationLabel is free text, defaulted from a selected charging
	// location's display name but editable by the user. Required.
	LocationLabel string `json:"location"`

	// VisitDate is the calendar date of the visit in DateFormat. Required.
	VisitDate string `json:"visitDate"`

	// EnergyAddedKwh is the energy charged during the visit.
	// Nil when the user did not record it; must be >= 0 when present.
	EnergyAddedKwh *float64 `json:"kwhAdded,omitempty"`

	Notes string `json:"notes,omitempty"`

	// Location is a denormalized snapshot of the charging location captured
	// at the moment it was selected. Nil for manually entered labels.
	Location *ChargingLocation `json:"supercharger,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"` // set on every update, never on create
}

// HasCoordinates reports whether the visit carries a location snapshot with
// both latitude and longitude, making it eligible for map projection.
func (v Visit) HasCoordinates() bool {
	return v.Location != nil && v.Location.Coordinates != nil
}
