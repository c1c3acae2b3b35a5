package domain

import "time"

// Vehicle is a car owned by exactly one user.
// Deleting a vehicle does not cascade to its visits; those keep a dangling
// VehicleID and are displayed as unassigned.
type Vehicle struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	Year      string    `json:"year,omitempty"`
	Color     string    `json:"color,omitempty"`
	VIN       string    `json:"vin,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
