package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chargelog/chargelog/internal/domain"
)

// Visits is the typed wrapper for the visit collection.
// The tracker depends on this type, not on the generic Store, so its code
// reads in domain terms.
type Visits struct {
	s Store
}

// NewVisits constructs a Visits wrapper over the given Store.
func NewVisits(s Store) *Visits {
	return &Visits{s: s}
}

// Add persists a new visit under userID and returns it with the
// store-assigned ID and CreatedAt filled in.
func (v *Visits) Add(ctx context.Context, userID string, visit domain.Visit) (domain.Visit, error) {
	data, err := json.Marshal(visitPayload(visit))
	if err != nil {
		return domain.Visit{}, fmt.Errorf("store.Visits.Add: marshal: %w", err)
	}

	doc, err := v.s.Create(ctx, userID, KindVisit, data)
	if err != nil {
		return domain.Visit{}, fmt.Errorf("store.Visits.Add: %w", err)
	}
	return decodeVisit(doc)
}

// Put writes a visit under its own ID, creating or overwriting it.
// Used by imports to preserve ids across export/import round-trips.
func (v *Visits) Put(ctx context.Context, userID string, visit domain.Visit) error {
	data, err := json.Marshal(visitPayload(visit))
	if err != nil {
		return fmt.Errorf("store.Visits.Put: marshal: %w", err)
	}

	if _, err := v.s.Put(ctx, userID, KindVisit, visit.ID, data); err != nil {
		return fmt.Errorf("store.Visits.Put: %w", err)
	}
	return nil
}

// List returns all visits for userID ordered by visit date descending
// (most recent first).
func (v *Visits) List(ctx context.Context, userID string) ([]domain.Visit, error) {
	docs, err := v.s.List(ctx, userID, KindVisit, "visitDate")
	if err != nil {
		return nil, fmt.Errorf("store.Visits.List: %w", err)
	}

	visits := make([]domain.Visit, 0, len(docs))
	for _, doc := range docs {
		visit, err := decodeVisit(doc)
		if err != nil {
			return nil, fmt.Errorf("store.Visits.List: %w", err)
		}
		visits = append(visits, visit)
	}
	return visits, nil
}

// Update overwrites the mutable fields of an existing visit. CreatedAt is an
// envelope value and survives untouched; the store stamps UpdatedAt.
// Returns domain.ErrNotFound if the visit does not exist.
func (v *Visits) Update(ctx context.Context, userID, id string, visit domain.Visit) error {
	patch, err := json.Marshal(visitPayload(visit))
	if err != nil {
		return fmt.Errorf("store.Visits.Update: marshal: %w", err)
	}

	if err := v.s.Update(ctx, userID, KindVisit, id, patch); err != nil {
		return fmt.Errorf("store.Visits.Update: %w", err)
	}
	return nil
}

// Delete removes a visit. Idempotent: deleting an absent visit succeeds.
func (v *Visits) Delete(ctx context.Context, userID, id string) error {
	if err := v.s.Delete(ctx, userID, KindVisit, id); err != nil {
		return fmt.Errorf("store.Visits.Delete: %w", err)
	}
	return nil
}

// visitDoc is the persisted payload shape. Every mutable field is always
// serialized (no omitempty) so an update patch can clear a field, matching
// the last-write-wins merge of the JSONB layer.
type visitDoc struct {
	VehicleID      string                   `json:"vehicleId"`
	LocationLabel  string                   `json:"location"`
	VisitDate      string                   `json:"visitDate"`
	EnergyAddedKwh *float64                 `json:"kwhAdded"`
	Notes          string                   `json:"notes"`
	Location       *domain.ChargingLocation `json:"supercharger"`
}

func visitPayload(v domain.Visit) visitDoc {
	return visitDoc{
		VehicleID:      v.VehicleID,
		LocationLabel:  v.LocationLabel,
		VisitDate:      v.VisitDate,
		EnergyAddedKwh: v.EnergyAddedKwh,
		Notes:          v.Notes,
		Location:       v.Location,
	}
}

func decodeVisit(doc Document) (domain.Visit, error) {
	var payload visitDoc
	if err := json.Unmarshal(doc.Data, &payload); err != nil {
		return domain.Visit{}, fmt.Errorf("decode visit %s: %w", doc.ID, err)
	}
	return domain.Visit{
		ID:             doc.ID,
		VehicleID:      payload.VehicleID,
		LocationLabel:  payload.LocationLabel,
		VisitDate:      payload.VisitDate,
		EnergyAddedKwh: payload.EnergyAddedKwh,
		Notes:          payload.Notes,
		Location:       payload.Location,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}
