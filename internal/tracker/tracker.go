// Package tracker implements the reconciled in-memory view of one user's
// vehicles and visits. Every mutating operation writes through the document
// store and then re-fetches the affected list, so the view is always the
// store's version of the truth rather than an optimistic local patch.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chargelog/chargelog/internal/domain"
	"github.com/chargelog/chargelog/internal/session"
	"github.com/chargelog/chargelog/internal/store"
)

// View is a read-only snapshot of the tracker state.
type View struct {
	Identity string

	Vehicles []domain.Vehicle

	// ActiveVehicle filters the visit projection. Empty means all vehicles.
	ActiveVehicle string

	// Visits is the filtered visit list currently displayed.
	Visits []domain.Visit

	// VisitsKnown distinguishes a confirmed-empty visit list from one that
	// is empty because the last load failed.
	VisitsKnown bool

	// EditingVisit and EditingVehicle carry the id of the record currently
	// being edited, or empty. At most one edit per surface is in progress.
	EditingVisit   string
	EditingVehicle string
}

// Tracker holds the reconciled per-user state. All state transitions are
// serialized through an internal mutex; store calls happen outside it.
type Tracker struct {
	vehicles *store.Vehicles
	visits   *store.Visits
	log      *slog.Logger

	mu            sync.Mutex
	identity      string
	activeVehicle string
	vehicleList   []domain.Vehicle
	visitList     []domain.Visit
	visitsKnown   bool

	// loadGen tags every issued load with the (identity, filter) pair it
	// was started for. A load whose generation no longer matches when its
	// result arrives is stale and gets dropped.
	loadGen uint64

	visitEdit   *editSession
	vehicleEdit *editSession
}

// New constructs a Tracker over the given typed store wrappers.
func New(vehicles *store.Vehicles, visits *store.Visits, log *slog.Logger) *Tracker {
	return &Tracker{
		vehicles:    vehicles,
		visits:      visits,
		log:         log,
		visitEdit:   newEditSession(),
		vehicleEdit: newEditSession(),
	}
}

// HandleSession reacts to an identity transition. Sign-in loads the new
// identity's vehicles and visits; sign-out clears all state immediately so
// results of in-flight loads for the previous identity are never applied.
func (t *Tracker) HandleSession(ctx context.Context, s *session.Session) {
	t.mu.Lock()
	t.loadGen++
	if s == nil {
		t.identity = ""
		t.activeVehicle = ""
		t.vehicleList = nil
		t.visitList = nil
		t.visitsKnown = false
		t.visitEdit.reset()
		t.vehicleEdit.reset()
		t.mu.Unlock()
		return
	}
	t.identity = s.UserID
	t.activeVehicle = ""
	t.visitsKnown = false
	t.mu.Unlock()

	t.reloadVehicles(ctx)
	t.reloadVisits(ctx)
}

// View returns a copy of the current state.
func (t *Tracker) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return View{
		Identity:       t.identity,
		Vehicles:       append([]domain.Vehicle(nil), t.vehicleList...),
		ActiveVehicle:  t.activeVehicle,
		Visits:         append([]domain.Visit(nil), t.visitList...),
		VisitsKnown:    t.visitsKnown,
		EditingVisit:   t.visitEdit.current(),
		EditingVehicle: t.vehicleEdit.current(),
	}
}

// SelectVehicle sets the active vehicle filter (empty = all) and reloads the
// visit projection for it. The filter never touches the stored visits'
// VehicleID fields; it is a view concern only.
func (t *Tracker) SelectVehicle(ctx context.Context, vehicleID string) {
	t.mu.Lock()
	// An unchanged filter is a no-op unless the last load failed; selecting
	// it again then retries the load.
	if t.activeVehicle == vehicleID && t.visitsKnown {
		t.mu.Unlock()
		return
	}
	t.activeVehicle = vehicleID
	t.loadGen++ // supersede any pending load for the previous filter
	t.mu.Unlock()

	t.reloadVisits(ctx)
}

// Stats derives the aggregate counters from the currently displayed visits.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	visits := append([]domain.Visit(nil), t.visitList...)
	t.mu.Unlock()
	return ProjectStats(visits)
}

// Route derives the map markers and chronological polyline from the
// currently displayed visits.
func (t *Tracker) Route() Route {
	t.mu.Lock()
	visits := append([]domain.Visit(nil), t.visitList...)
	t.mu.Unlock()
	return ProjectRoute(visits)
}

// --- vehicle operations -----------------------------------------------------

// AddVehicle persists a new vehicle for the current identity and reloads the
// vehicle list. Returns domain.ErrNotAuthenticated when signed out.
func (t *Tracker) AddVehicle(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	identity, err := t.requireIdentity()
	if err != nil {
		return domain.Vehicle{}, err
	}
	if strings.TrimSpace(v.Name) == "" {
		return domain.Vehicle{}, fmt.Errorf("%w: vehicle name is required", domain.ErrValidation)
	}

	created, err := t.vehicles.Add(ctx, identity, v)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("tracker.Tracker.AddVehicle: %w", err)
	}

	t.reloadVehicles(ctx)
	return created, nil
}

// UpdateVehicle overwrites a vehicle's fields and reloads the vehicle list.
func (t *Tracker) UpdateVehicle(ctx context.Context, id string, v domain.Vehicle) error {
	identity, err := t.requireIdentity()
	if err != nil {
		return err
	}
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("%w: vehicle name is required", domain.ErrValidation)
	}

	if err := t.vehicles.Update(ctx, identity, id, v); err != nil {
		t.mu.Lock()
		t.vehicleEdit.fail()
		t.mu.Unlock()
		return fmt.Errorf("tracker.Tracker.UpdateVehicle: %w", err)
	}
	t.mu.Lock()
	t.vehicleEdit.save(id)
	t.mu.Unlock()

	t.reloadVehicles(ctx)
	return nil
}

// DeleteVehicle removes a vehicle and reloads the vehicle list.
// Visits referencing it keep their dangling VehicleID and are displayed as
// unassigned; they are never deleted along with the vehicle.
func (t *Tracker) DeleteVehicle(ctx context.Context, id string) error {
	identity, err := t.requireIdentity()
	if err != nil {
		return err
	}

	if err := t.vehicles.Delete(ctx, identity, id); err != nil {
		return fmt.Errorf("tracker.Tracker.DeleteVehicle: %w", err)
	}

	t.mu.Lock()
	if t.activeVehicle == id {
		// The filter pointed at the deleted vehicle; fall back to all.
		t.activeVehicle = ""
		t.loadGen++
	}
	t.mu.Unlock()

	t.reloadVehicles(ctx)
	t.reloadVisits(ctx)
	return nil
}

// --- visit operations -------------------------------------------------------

// AddVisit validates and persists a new visit, then reloads the visit
// projection. Validation failures are reported before any store call.
func (t *Tracker) AddVisit(ctx context.Context, v domain.Visit) (domain.Visit, error) {
	identity, err := t.requireIdentity()
	if err != nil {
		return domain.Visit{}, err
	}
	if err := validateVisit(v); err != nil {
		return domain.Visit{}, err
	}

	created, err := t.visits.Add(ctx, identity, v)
	if err != nil {
		return domain.Visit{}, fmt.Errorf("tracker.Tracker.AddVisit: %w", err)
	}

	t.reloadVisits(ctx)
	return created, nil
}

// UpdateVisit validates and persists changes to an existing visit.
// The id must be present in the currently loaded set — a missing id fails
// with domain.ErrNotFound before the store call, so the caller gets an
// immediate error instead of a silent no-op. CreatedAt is preserved; the
// store stamps UpdatedAt.
func (t *Tracker) UpdateVisit(ctx context.Context, id string, v domain.Visit) error {
	identity, err := t.requireIdentity()
	if err != nil {
		return err
	}
	if err := validateVisit(v); err != nil {
		return err
	}

	t.mu.Lock()
	known := false
	for _, existing := range t.visitList {
		if existing.ID == id {
			known = true
			break
		}
	}
	t.mu.Unlock()
	if !known {
		return fmt.Errorf("tracker.Tracker.UpdateVisit: %w", domain.ErrNotFound)
	}

	if err := t.visits.Update(ctx, identity, id, v); err != nil {
		// Save failed: the edit session stays open with fields retained.
		t.mu.Lock()
		t.visitEdit.fail()
		t.mu.Unlock()
		return fmt.Errorf("tracker.Tracker.UpdateVisit: %w", err)
	}
	t.mu.Lock()
	t.visitEdit.save(id)
	t.mu.Unlock()

	t.reloadVisits(ctx)
	return nil
}

// DeleteVisit removes a visit once the caller has resolved the confirmation
// decision. A declined decision is a no-op. The delete itself is idempotent.
func (t *Tracker) DeleteVisit(ctx context.Context, id string, confirmed bool) error {
	identity, err := t.requireIdentity()
	if err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	if err := t.visits.Delete(ctx, identity, id); err != nil {
		return fmt.Errorf("tracker.Tracker.DeleteVisit: %w", err)
	}

	t.reloadVisits(ctx)
	return nil
}

// --- edit sessions ----------------------------------------------------------

// BeginEditVisit marks a visit as being edited. Starting a new edit while
// one is in progress silently replaces it. Returns domain.ErrNotFound when
// the id is not in the loaded set.
func (t *Tracker) BeginEditVisit(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, v := range t.visitList {
		if v.ID == id {
			t.visitEdit.begin(id)
			return nil
		}
	}
	return fmt.Errorf("tracker.Tracker.BeginEditVisit: %w", domain.ErrNotFound)
}

// BeginEditVehicle marks a vehicle as being edited.
func (t *Tracker) BeginEditVehicle(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, v := range t.vehicleList {
		if v.ID == id {
			t.vehicleEdit.begin(id)
			return nil
		}
	}
	return fmt.Errorf("tracker.Tracker.BeginEditVehicle: %w", domain.ErrNotFound)
}

// CancelEdit abandons both edit sessions and leaves stored data untouched.
func (t *Tracker) CancelEdit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visitEdit.cancel()
	t.vehicleEdit.cancel()
}

// --- load plumbing ----------------------------------------------------------

// reloadVehicles fetches the vehicle list for the current identity.
// Failures degrade to keeping the previous list; they are logged, not
// propagated, so the view stays usable.
func (t *Tracker) reloadVehicles(ctx context.Context) {
	t.mu.Lock()
	gen, identity := t.loadGen, t.identity
	t.mu.Unlock()
	if identity == "" {
		return
	}

	vehicles, err := t.vehicles.List(ctx, identity)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.loadGen {
		return // superseded by a newer load or a sign-out
	}
	if err != nil {
		t.log.Warn("vehicle load failed, keeping previous list", "error", err)
		return
	}
	t.vehicleList = vehicles
}

// reloadVisits fetches the visit list for the current identity and applies
// the active vehicle filter. The result is applied only when the generation
// it was issued for is still current: a reload for a superseded filter or a
// signed-out identity is discarded, regardless of completion order.
func (t *Tracker) reloadVisits(ctx context.Context) {
	t.mu.Lock()
	gen, identity, filter := t.loadGen, t.identity, t.activeVehicle
	t.mu.Unlock()
	if identity == "" {
		return
	}

	visits, err := t.visits.List(ctx, identity)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.loadGen {
		return
	}
	if err != nil {
		// Degrade to an empty view but mark it unknown so "load failed"
		// is distinguishable from "no visits exist".
		t.log.Warn("visit load failed, showing empty view", "error", err)
		t.visitList = nil
		t.visitsKnown = false
		return
	}

	if filter == "" {
		t.visitList = visits
	} else {
		filtered := make([]domain.Visit, 0, len(visits))
		for _, v := range visits {
			if v.VehicleID == filter {
				filtered = append(filtered, v)
			}
		}
		t.visitList = filtered
	}
	t.visitsKnown = true
}

// requireIdentity returns the active identity or domain.ErrNotAuthenticated.
func (t *Tracker) requireIdentity() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.identity == "" {
		return "", domain.ErrNotAuthenticated
	}
	return t.identity, nil
}

// validateVisit enforces the rules common to AddVisit and UpdateVisit.
//   - LocationLabel must be non-empty (whitespace-only is rejected).
//   - VisitDate must be a calendar date in domain.DateFormat.
//   - EnergyAddedKwh, when present, must not be negative.
func validateVisit(v domain.Visit) error {
	if strings.TrimSpace(v.LocationLabel) == "" {
		return fmt.Errorf("%w: location is required", domain.ErrValidation)
	}
	if strings.TrimSpace(v.VisitDate) == "" {
		return fmt.Errorf("%w: visit date is required", domain.ErrValidation)
	}
	if _, err := time.Parse(domain.DateFormat, v.VisitDate); err != nil {
		return fmt.Errorf("%w: visit date must be a YYYY-MM-DD date", domain.ErrValidation)
	}
	if v.EnergyAddedKwh != nil && *v.EnergyAddedKwh < 0 {
		return fmt.Errorf("%w: energy added must not be negative", domain.ErrValidation)
	}
	return nil
}
