// Package porter implements snapshot export and import. A snapshot is a
// self-contained JSON document carrying a user's profile header, vehicles,
// and visits; records keep their store ids so an exported snapshot can be
// re-imported without duplicating anything.
package porter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chargelog/chargelog/internal/domain"
	"github.com/chargelog/chargelog/internal/store"
)

// SnapshotVersion is the format version written to every export and
// accepted on import. Unknown versions are rejected up front.
const SnapshotVersion = "1.0"

// Snapshot is the export file format.
type Snapshot struct {
	Version    string           `json:"version"`
	ExportDate time.Time        `json:"exportDate"`
	User       SnapshotUser     `json:"user"`
	Vehicles   []domain.Vehicle `json:"vehicles"`
	Visits     []domain.Visit   `json:"visits"`
}

// SnapshotUser is the profile header of a snapshot. Informational only;
// imports always write under the importing identity, never this one.
type SnapshotUser struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Strategy selects how an import treats records already in the store.
type Strategy string

const (
	// StrategyMerge keeps existing records and inserts only incoming
	// records whose id is not already present.
	StrategyMerge Strategy = "merge"

	// StrategyReplace writes every incoming record, overwriting records
	// that share an id. Records in the store but absent from the snapshot
	// are left alone.
	StrategyReplace Strategy = "replace"
)

// ParseStrategy maps a user-supplied strategy name onto a Strategy.
// An empty name defaults to merge, the non-destructive choice.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case StrategyMerge, "":
		return StrategyMerge, nil
	case StrategyReplace:
		return StrategyReplace, nil
	}
	return "", fmt.Errorf("%w: unknown import strategy %q", domain.ErrValidation, name)
}

// Report summarizes what an import did.
type Report struct {
	VehiclesImported int `json:"vehiclesImported"`
	VisitsImported   int `json:"visitsImported"`
	Skipped          int `json:"skipped"`
	Failed           int `json:"failed"`
}

// Engine assembles and applies snapshots against the document store.
type Engine struct {
	profiles *store.Profiles
	vehicles *store.Vehicles
	visits   *store.Visits
	log      *slog.Logger
}

// New constructs an Engine over the given typed store wrappers.
func New(profiles *store.Profiles, vehicles *store.Vehicles, visits *store.Visits, log *slog.Logger) *Engine {
	return &Engine{profiles: profiles, vehicles: vehicles, visits: visits, log: log}
}

// Export assembles a snapshot of everything stored under userID. The visit
// list is always the full set, independent of any active vehicle filter.
// A missing profile yields an empty user header, not an error.
func (e *Engine) Export(ctx context.Context, userID string) (Snapshot, error) {
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportDate: time.Now().UTC(),
	}

	profile, err := e.profiles.Get(ctx, userID)
	switch {
	case err == nil:
		snap.User = SnapshotUser{Email: profile.Email, DisplayName: profile.DisplayName}
	case !isNotFound(err):
		return Snapshot{}, fmt.Errorf("porter.Engine.Export: %w", err)
	}

	snap.Vehicles, err = e.vehicles.List(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("porter.Engine.Export: %w", err)
	}
	snap.Visits, err = e.visits.List(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("porter.Engine.Export: %w", err)
	}

	return snap, nil
}

// Import parses data as a snapshot and applies it to userID's store scope
// using the given strategy. Structural problems fail with
// domain.ErrInvalidFormat before anything is written. Individual record
// failures are logged and counted but do not abort the rest of the import.
func (e *Engine) Import(ctx context.Context, userID string, data []byte, strategy Strategy) (Report, error) {
	snap, err := Parse(data)
	if err != nil {
		return Report{}, fmt.Errorf("porter.Engine.Import: %w", err)
	}

	// Snapshot the existing id sets before writing anything, so the skip
	// decisions are all made against the pre-import state.
	existingVehicles, existingVisits, err := e.existingIDs(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("porter.Engine.Import: %w", err)
	}

	var report Report
	for _, vehicle := range snap.Vehicles {
		switch e.importVehicle(ctx, userID, vehicle, strategy, existingVehicles) {
		case importDone:
			report.VehiclesImported++
		case importSkipped:
			report.Skipped++
		case importFailed:
			report.Failed++
		}
	}
	for _, visit := range snap.Visits {
		switch e.importVisit(ctx, userID, visit, strategy, existingVisits) {
		case importDone:
			report.VisitsImported++
		case importSkipped:
			report.Skipped++
		case importFailed:
			report.Failed++
		}
	}

	e.log.Info("import finished",
		"strategy", string(strategy),
		"vehicles", report.VehiclesImported,
		"visits", report.VisitsImported,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// Parse decodes and structurally validates snapshot bytes without touching
// any store. Callers outside an import (the CLI) use it directly.
func Parse(data []byte) (Snapshot, error) {
	// The structural contract: a JSON object whose "visits" key is present
	// and holds an array. Everything else is record-level.
	var probe struct {
		Version string          `json:"version"`
		Visits  json.RawMessage `json:"visits"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Snapshot{}, fmt.Errorf("%w: not a JSON object", domain.ErrInvalidFormat)
	}
	trimmed := strings.TrimSpace(string(probe.Visits))
	if trimmed == "" || trimmed == "null" || !strings.HasPrefix(trimmed, "[") {
		return Snapshot{}, fmt.Errorf("%w: missing visits array", domain.ErrInvalidFormat)
	}
	if probe.Version != "" && probe.Version != SnapshotVersion {
		return Snapshot{}, fmt.Errorf("%w: unsupported snapshot version %q", domain.ErrInvalidFormat, probe.Version)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s", domain.ErrInvalidFormat, err)
	}
	return snap, nil
}

type importResult int

const (
	importDone importResult = iota
	importSkipped
	importFailed
)

func (e *Engine) importVehicle(ctx context.Context, userID string, vehicle domain.Vehicle, strategy Strategy, existing map[string]bool) importResult {
	if strings.TrimSpace(vehicle.Name) == "" {
		e.log.Warn("skipping vehicle without a name", "id", vehicle.ID)
		return importFailed
	}

	var err error
	switch {
	case vehicle.ID == "":
		_, err = e.vehicles.Add(ctx, userID, vehicle)
	case strategy == StrategyMerge && existing[vehicle.ID]:
		return importSkipped
	default:
		err = e.vehicles.Put(ctx, userID, vehicle)
	}
	if err != nil {
		e.log.Warn("vehicle import failed", "id", vehicle.ID, "error", err)
		return importFailed
	}
	return importDone
}

func (e *Engine) importVisit(ctx context.Context, userID string, visit domain.Visit, strategy Strategy, existing map[string]bool) importResult {
	if strings.TrimSpace(visit.LocationLabel) == "" || strings.TrimSpace(visit.VisitDate) == "" {
		e.log.Warn("skipping visit without location or date", "id", visit.ID)
		return importFailed
	}

	var err error
	switch {
	case visit.ID == "":
		_, err = e.visits.Add(ctx, userID, visit)
	case strategy == StrategyMerge && existing[visit.ID]:
		return importSkipped
	default:
		err = e.visits.Put(ctx, userID, visit)
	}
	if err != nil {
		e.log.Warn("visit import failed", "id", visit.ID, "error", err)
		return importFailed
	}
	return importDone
}

func (e *Engine) existingIDs(ctx context.Context, userID string) (vehicles, visits map[string]bool, err error) {
	vehicleList, err := e.vehicles.List(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	visitList, err := e.visits.List(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	vehicles = make(map[string]bool, len(vehicleList))
	for _, v := range vehicleList {
		vehicles[v.ID] = true
	}
	visits = make(map[string]bool, len(visitList))
	for _, v := range visitList {
		visits[v.ID] = true
	}
	return vehicles, visits, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
