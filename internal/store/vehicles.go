package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chargelog/chargelog/internal/domain"
)

// Vehicles is the typed wrapper for the vehicle collection.
type Vehicles struct {
	s Store
}

// NewVehicles constructs a Vehicles wrapper over the given Store.
func NewVehicles(s Store) *Vehicles {
	return &Vehicles{s: s}
}

// Add persists a new vehicle under userID and returns it with the
// store-assigned ID and CreatedAt filled in.
func (v *Vehicles) Add(ctx context.Context, userID string, vehicle domain.Vehicle) (domain.Vehicle, error) {
	data, err := json.Marshal(vehiclePayload(vehicle))
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("store.Vehicles.Add: marshal: %w", err)
	}

	doc, err := v.s.Create(ctx, userID, KindVehicle, data)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("store.Vehicles.Add: %w", err)
	}
	return decodeVehicle(doc)
}

// Put writes a vehicle under its own ID, creating or overwriting it.
// Used by imports to preserve ids across export/import round-trips.
func (v *Vehicles) Put(ctx context.Context, userID string, vehicle domain.Vehicle) error {
	data, err := json.Marshal(vehiclePayload(vehicle))
	if err != nil {
		return fmt.Errorf("store.Vehicles.Put: marshal: %w", err)
	}

	if _, err := v.s.Put(ctx, userID, KindVehicle, vehicle.ID, data); err != nil {
		return fmt.Errorf("store.Vehicles.Put: %w", err)
	}
	return nil
}

// List returns all vehicles for userID, newest first.
func (v *Vehicles) List(ctx context.Context, userID string) ([]domain.Vehicle, error) {
	docs, err := v.s.List(ctx, userID, KindVehicle, "createdAt")
	if err != nil {
		return nil, fmt.Errorf("store.Vehicles.List: %w", err)
	}

	vehicles := make([]domain.Vehicle, 0, len(docs))
	for _, doc := range docs {
		vehicle, err := decodeVehicle(doc)
		if err != nil {
			return nil, fmt.Errorf("store.Vehicles.List: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, nil
}

// Update overwrites the mutable fields of an existing vehicle.
// Returns domain.ErrNotFound if the vehicle does not exist.
func (v *Vehicles) Update(ctx context.Context, userID, id string, vehicle domain.Vehicle) error {
	patch, err := json.Marshal(vehiclePayload(vehicle))
	if err != nil {
		return fmt.Errorf("store.Vehicles.Update: marshal: %w", err)
	}

	if err := v.s.Update(ctx, userID, KindVehicle, id, patch); err != nil {
		return fmt.Errorf("store.Vehicles.Update: %w", err)
	}
	return nil
}

// Delete removes a vehicle. Visits referencing it are left untouched.
func (v *Vehicles) Delete(ctx context.Context, userID, id string) error {
	if err := v.s.Delete(ctx, userID, KindVehicle, id); err != nil {
		return fmt.Errorf("store.Vehicles.Delete: %w", err)
	}
	return nil
}

type vehicleDoc struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Year  string `json:"year"`
	Color string `json:"color"`
	VIN   string `json:"vin"`
}

func vehiclePayload(v domain.Vehicle) vehicleDoc {
	return vehicleDoc{
		Name:  v.Name,
		Model: v.Model,
		Year:  v.Year,
		Color: v.Color,
		VIN:   v.VIN,
	}
}

func decodeVehicle(doc Document) (domain.Vehicle, error) {
	var payload vehicleDoc
	if err := json.Unmarshal(doc.Data, &payload); err != nil {
		return domain.Vehicle{}, fmt.Errorf("decode vehicle %s: %w", doc.ID, err)
	}
	return domain.Vehicle{
		ID:        doc.ID,
		Name:      payload.Name,
		Model:     payload.Model,
		Year:      payload.Year,
		Color:     payload.Color,
		VIN:       payload.VIN,
		CreatedAt: doc.CreatedAt,
	}, nil
}
