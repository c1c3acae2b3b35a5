// Package store contains the document-store access layer for the tracker.
// Records of every kind live in one generic per-user document collection;
// typed wrappers (Vehicles, Visits, Profiles) marshal domain types in and out.
// No business logic lives here — only persistence and type mapping.
package store

import (
	"context"
	"time"
)

// Kind names a record collection within a user's scope.
type Kind string

// The three record kinds the tracker persists.
const (
	KindProfile Kind = "profile"
	KindVehicle Kind = "vehicle"
	KindVisit   Kind = "visit"
)

// Document is the raw record envelope. Data holds the JSON payload; the
// envelope carries the store-assigned identity and timestamps.
type Document struct {
	ID        string
	Data      []byte
	CreatedAt time.Time
	UpdatedAt *time.Time // nil until the first update
}

// Store is the generic CRUD contract scoped by (userID, kind, recordID).
// Each operation is atomic for the single record it targets; there are no
// transactions across records. Concurrent writers follow last-write-wins
// with no conflict detection.
//
// Implementations return domain.ErrStoreUnavailable on transport failure and
// domain.ErrNotFound where documented. Delete is idempotent: deleting an
// absent record succeeds.
type Store interface {
	// Create inserts a new record, assigns a unique id, and stamps CreatedAt.
	Create(ctx context.Context, userID string, kind Kind, data []byte) (Document, error)

	// Put writes a record under a caller-supplied id, creating it if absent
	// and overwriting the payload if present. Existing records keep their
	// CreatedAt and get UpdatedAt stamped. Imports use this to preserve
	// record ids across export/import round-trips.
	Put(ctx context.Context, userID string, kind Kind, id string, data []byte) (Document, error)

	// Get retrieves a single record. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, userID string, kind Kind, id string) (Document, error)

	// List returns all records of a kind for a user, ordered by the named
	// field descending. orderBy is either "createdAt" (the envelope
	// timestamp) or a top-level field of the JSON payload.
	List(ctx context.Context, userID string, kind Kind, orderBy string) ([]Document, error)

	// Update merges patch (a JSON object) into the record's payload and
	// stamps UpdatedAt. Returns domain.ErrNotFound if the record is absent.
	Update(ctx context.Context, userID string, kind Kind, id string, patch []byte) error

	// Delete removes a record. Succeeds even when the record is already gone.
	Delete(ctx context.Context, userID string, kind Kind, id string) error
}
