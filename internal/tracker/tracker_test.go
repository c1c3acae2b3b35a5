package tracker_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargelog/chargelog/internal/domain"
	"github.com/chargelog/chargelog/internal/session"
	"github.com/chargelog/chargelog/internal/store"
	"github.com/chargelog/chargelog/internal/tracker"
)

// mockStore is a hand-written test double for store.Store.
// Each method is a function field — set only the ones your test needs;
// unset methods delegate to a real in-memory store.
type mockStore struct {
	mem store.Store

	create func(ctx context.Context, userID string, kind store.Kind, data []byte) (store.Document, error)
	put    func(ctx context.Context, userID string, kind store.Kind, id string, data []byte) (store.Document, error)
	list   func(ctx context.Context, userID string, kind store.Kind, orderBy string) ([]store.Document, error)
	update func(ctx context.Context, userID string, kind store.Kind, id string, patch []byte) error
	delete func(ctx context.Context, userID string, kind store.Kind, id string) error
}

func (m *mockStore) Create(ctx context.Context, userID string, kind store.Kind, data []byte) (store.Document, error) {
	if m.create != nil {
		return m.create(ctx, userID, kind, data)
	}
	return m.mem.Create(ctx, userID, kind, data)
}

func (m *mockStore) Put(ctx context.Context, userID string, kind store.Kind, id string, data []byte) (store.Document, error) {
	if m.put != nil {
		return m.put(ctx, userID, kind, id, data)
	}
	return m.mem.Put(ctx, userID, kind, id, data)
}

func (m *mockStore) Get(ctx context.Context, userID string, kind store.Kind, id string) (store.Document, error) {
	return m.mem.Get(ctx, userID, kind, id)
}

func (m *mockStore) List(ctx context.Context, userID string, kind store.Kind, orderBy string) ([]store.Document, error) {
	if m.list != nil {
		return m.list(ctx, userID, kind, orderBy)
	}
	return m.mem.List(ctx, userID, kind, orderBy)
}

func (m *mockStore) Update(ctx context.Context, userID string, kind store.Kind, id string, patch []byte) error {
	if m.update != nil {
		return m.update(ctx, userID, kind, id, patch)
	}
	return m.mem.Update(ctx, userID, kind, id, patch)
}

func (m *mockStore) Delete(ctx context.Context, userID string, kind store.Kind, id string) error {
	if m.delete != nil {
		return m.delete(ctx, userID, kind, id)
	}
	return m.mem.Delete(ctx, userID, kind, id)
}

var _ store.Store = (*mockStore)(nil)

// ---- helpers ---------------------------------------------------------------

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTracker(s store.Store) *tracker.Tracker {
	return tracker.New(store.NewVehicles(s), store.NewVisits(s), discardLogger())
}

// signedInTracker returns a tracker with an active identity and the backing
// mock store, so tests can break individual store methods.
func signedInTracker(t *testing.T) (*tracker.Tracker, *mockStore) {
	t.Helper()
	ms := &mockStore{mem: store.NewMemStore()}
	tr := newTracker(ms)
	tr.HandleSession(context.Background(), &session.Session{UserID: "user-1", Email: "alice@example.com"})
	return tr, ms
}

func validVisit() domain.Visit {
	kwh := 42.5
	return domain.Visit{
		LocationLabel:  "Paris Supercharger",
		VisitDate:      "2026-03-14",
		EnergyAddedKwh: &kwh,
		Notes:          "quick top-up",
	}
}

// ---- session transitions ---------------------------------------------------

func TestTracker_SignIn_LoadsState(t *testing.T) {
	tr, _ := signedInTracker(t)

	view := tr.View()

	assert.Equal(t, "user-1", view.Identity)
	assert.Empty(t, view.Visits)
	// An empty list after a successful load is confirmed-empty.
	assert.True(t, view.VisitsKnown)
}

func TestTracker_SignOut_ClearsState(t *testing.T) {
	tr, _ := signedInTracker(t)
	_, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)

	tr.HandleSession(context.Background(), nil)

	view := tr.View()
	assert.Empty(t, view.Identity)
	assert.Empty(t, view.Visits)
	assert.Empty(t, view.Vehicles)
	assert.False(t, view.VisitsKnown)
}

func TestTracker_VisitLoadFailure_ShowsEmptyUnknownView(t *testing.T) {
	tr, ms := signedInTracker(t)
	_, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)

	ms.list = func(context.Context, string, store.Kind, string) ([]store.Document, error) {
		return nil, domain.ErrStoreUnavailable
	}
	tr.SelectVehicle(context.Background(), "some-vehicle")

	view := tr.View()
	assert.Empty(t, view.Visits)
	// A failed load must not masquerade as a confirmed-empty list.
	assert.False(t, view.VisitsKnown)
}

// blockFirstVisitLoad arms the mock so the first visit list call blocks until
// release is closed, signalling started when it begins. Vehicle loads and all
// later visit loads pass straight through to the in-memory store.
func blockFirstVisitLoad(ms *mockStore, started, release chan struct{}) {
	var visitLoads atomic.Int32
	ms.list = func(ctx context.Context, userID string, kind store.Kind, orderBy string) ([]store.Document, error) {
		if kind == store.KindVisit && visitLoads.Add(1) == 1 {
			close(started)
			<-release
		}
		return ms.mem.List(ctx, userID, kind, orderBy)
	}
}

func TestTracker_SupersededLoadIsDiscarded(t *testing.T) {
	tr, ms := signedInTracker(t)
	car, err := tr.AddVehicle(context.Background(), domain.Vehicle{Name: "Blue Model 3"})
	require.NoError(t, err)

	mine := validVisit()
	mine.VehicleID = car.ID
	_, err = tr.AddVisit(context.Background(), mine)
	require.NoError(t, err)
	_, err = tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	blockFirstVisitLoad(ms, started, release)

	loadDone := make(chan struct{})
	go func() {
		defer close(loadDone)
		tr.SelectVehicle(context.Background(), car.ID)
	}()
	<-started

	// A newer selection supersedes the pending filtered load.
	tr.SelectVehicle(context.Background(), "")
	close(release)
	<-loadDone

	view := tr.View()
	assert.Empty(t, view.ActiveVehicle)
	assert.Len(t, view.Visits, 2, "the stale filtered result must not overwrite the newer load")
	assert.True(t, view.VisitsKnown)
}

func TestTracker_SignOutDropsInFlightLoad(t *testing.T) {
	tr, ms := signedInTracker(t)
	_, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	blockFirstVisitLoad(ms, started, release)

	loadDone := make(chan struct{})
	go func() {
		defer close(loadDone)
		// The idempotent delete of an absent id still triggers a reload.
		_ = tr.DeleteVisit(context.Background(), "no-such-visit", true)
	}()
	<-started

	tr.HandleSession(context.Background(), nil)
	close(release)
	<-loadDone

	view := tr.View()
	assert.Empty(t, view.Identity)
	assert.Empty(t, view.Visits, "a load finishing after sign-out must not repopulate the view")
	assert.False(t, view.VisitsKnown)
}

// ---- visit operations ------------------------------------------------------

func TestTracker_AddVisit_SignedOut(t *testing.T) {
	tr := newTracker(store.NewMemStore())

	_, err := tr.AddVisit(context.Background(), validVisit())

	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestTracker_AddVisit_AppearsInView(t *testing.T) {
	tr, _ := signedInTracker(t)

	created, err := tr.AddVisit(context.Background(), validVisit())

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	view := tr.View()
	require.Len(t, view.Visits, 1)
	assert.Equal(t, "Paris Supercharger", view.Visits[0].LocationLabel)
	assert.True(t, view.VisitsKnown)
}

func TestTracker_AddVisit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *domain.Visit)
	}{
		{"missing location", func(v *domain.Visit) { v.LocationLabel = "   " }},
		{"missing date", func(v *domain.Visit) { v.VisitDate = "" }},
		{"malformed date", func(v *domain.Visit) { v.VisitDate = "14/03/2026" }},
		{"negative energy", func(v *domain.Visit) { neg := -1.0; v.EnergyAddedKwh = &neg }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr, _ := signedInTracker(t)

			visit := validVisit()
			tc.mutate(&visit)

			_, err := tr.AddVisit(context.Background(), visit)

			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, tr.View().Visits, "a rejected visit must not be stored")
		})
	}
}

func TestTracker_UpdateVisit_UnknownID(t *testing.T) {
	tr, _ := signedInTracker(t)

	err := tr.UpdateVisit(context.Background(), "no-such-visit", validVisit())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTracker_UpdateVisit_PersistsChanges(t *testing.T) {
	tr, _ := signedInTracker(t)
	created, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)

	changed := validVisit()
	changed.Notes = "stayed for lunch"
	require.NoError(t, tr.UpdateVisit(context.Background(), created.ID, changed))

	view := tr.View()
	require.Len(t, view.Visits, 1)
	assert.Equal(t, "stayed for lunch", view.Visits[0].Notes)
	assert.Equal(t, created.CreatedAt, view.Visits[0].CreatedAt, "CreatedAt must survive updates")
	assert.NotNil(t, view.Visits[0].UpdatedAt)
}

func TestTracker_DeleteVisit_Unconfirmed(t *testing.T) {
	tr, _ := signedInTracker(t)
	created, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)

	require.NoError(t, tr.DeleteVisit(context.Background(), created.ID, false))

	assert.Len(t, tr.View().Visits, 1, "a declined confirmation must not delete")
}

func TestTracker_DeleteVisit_Confirmed(t *testing.T) {
	tr, _ := signedInTracker(t)
	created, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)

	require.NoError(t, tr.DeleteVisit(context.Background(), created.ID, true))

	assert.Empty(t, tr.View().Visits)
}

func TestTracker_DeleteVisit_AbsentID(t *testing.T) {
	tr, _ := signedInTracker(t)

	// Deleting a visit that never existed is idempotent.
	assert.NoError(t, tr.DeleteVisit(context.Background(), "no-such-visit", true))
}

// ---- vehicle operations and filtering --------------------------------------

func TestTracker_AddVehicle_SignedOut(t *testing.T) {
	tr := newTracker(store.NewMemStore())

	_, err := tr.AddVehicle(context.Background(), domain.Vehicle{Name: "Blue Model 3"})

	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestTracker_AddVehicle_MissingName(t *testing.T) {
	tr, _ := signedInTracker(t)

	_, err := tr.AddVehicle(context.Background(), domain.Vehicle{Name: " "})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTracker_SelectVehicle_FiltersVisits(t *testing.T) {
	tr, _ := signedInTracker(t)
	car, err := tr.AddVehicle(context.Background(), domain.Vehicle{Name: "Blue Model 3"})
	require.NoError(t, err)

	mine := validVisit()
	mine.VehicleID = car.ID
	_, err = tr.AddVisit(context.Background(), mine)
	require.NoError(t, err)
	_, err = tr.AddVisit(context.Background(), validVisit()) // unassigned
	require.NoError(t, err)

	tr.SelectVehicle(context.Background(), car.ID)
	require.Len(t, tr.View().Visits, 1)
	assert.Equal(t, car.ID, tr.View().Visits[0].VehicleID)

	tr.SelectVehicle(context.Background(), "")
	assert.Len(t, tr.View().Visits, 2)
}

func TestTracker_SelectVehicle_RetriesAfterFailedLoad(t *testing.T) {
	tr, ms := signedInTracker(t)
	_, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)

	ms.list = func(context.Context, string, store.Kind, string) ([]store.Document, error) {
		return nil, domain.ErrStoreUnavailable
	}
	tr.SelectVehicle(context.Background(), "some-vehicle")
	require.False(t, tr.View().VisitsKnown)

	ms.list = nil
	tr.SelectVehicle(context.Background(), "some-vehicle")

	assert.True(t, tr.View().VisitsKnown, "re-selecting the same filter retries a failed load")
}

func TestTracker_DeleteVehicle_KeepsVisitsAndResetsFilter(t *testing.T) {
	tr, _ := signedInTracker(t)
	car, err := tr.AddVehicle(context.Background(), domain.Vehicle{Name: "Blue Model 3"})
	require.NoError(t, err)

	visit := validVisit()
	visit.VehicleID = car.ID
	_, err = tr.AddVisit(context.Background(), visit)
	require.NoError(t, err)

	tr.SelectVehicle(context.Background(), car.ID)
	require.NoError(t, tr.DeleteVehicle(context.Background(), car.ID))

	view := tr.View()
	assert.Empty(t, view.Vehicles)
	assert.Empty(t, view.ActiveVehicle, "filter on a deleted vehicle falls back to all")
	// The visit survives with its now-dangling vehicle reference.
	require.Len(t, view.Visits, 1)
	assert.Equal(t, car.ID, view.Visits[0].VehicleID)
}

// ---- edit sessions ---------------------------------------------------------

func TestTracker_BeginEditVisit_UnknownID(t *testing.T) {
	tr, _ := signedInTracker(t)

	err := tr.BeginEditVisit("no-such-visit")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTracker_BeginEditVisit_ReplacesInProgressEdit(t *testing.T) {
	tr, _ := signedInTracker(t)
	first, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)
	second, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)

	require.NoError(t, tr.BeginEditVisit(first.ID))
	require.NoError(t, tr.BeginEditVisit(second.ID))

	assert.Equal(t, second.ID, tr.View().EditingVisit)
}

func TestTracker_UpdateVisit_ClosesEditSession(t *testing.T) {
	tr, _ := signedInTracker(t)
	created, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)

	require.NoError(t, tr.BeginEditVisit(created.ID))
	require.NoError(t, tr.UpdateVisit(context.Background(), created.ID, validVisit()))

	assert.Empty(t, tr.View().EditingVisit)
}

func TestTracker_UpdateVisit_FailureKeepsEditOpen(t *testing.T) {
	tr, ms := signedInTracker(t)
	created, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)

	require.NoError(t, tr.BeginEditVisit(created.ID))
	ms.update = func(context.Context, string, store.Kind, string, []byte) error {
		return domain.ErrStoreUnavailable
	}

	err = tr.UpdateVisit(context.Background(), created.ID, validVisit())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	assert.Equal(t, created.ID, tr.View().EditingVisit, "a failed save keeps the edit in progress")
}

func TestTracker_CancelEdit(t *testing.T) {
	tr, _ := signedInTracker(t)
	created, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)

	require.NoError(t, tr.BeginEditVisit(created.ID))
	tr.CancelEdit()

	assert.Empty(t, tr.View().EditingVisit)
	assert.Len(t, tr.View().Visits, 1, "cancel leaves stored data untouched")
}

func TestTracker_ViewDuringConcurrentUpdates(t *testing.T) {
	tr, _ := signedInTracker(t)
	created, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)

	// View reads the edit-session state while updates transition it; the
	// race detector flags any access outside the tracker's mutex.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			tr.View()
		}
	}()

	for i := 0; i < 200; i++ {
		require.NoError(t, tr.BeginEditVisit(created.ID))
		require.NoError(t, tr.UpdateVisit(context.Background(), created.ID, validVisit()))
	}
	<-done

	assert.Empty(t, tr.View().EditingVisit)
}

func TestTracker_SignOut_DropsEditSessions(t *testing.T) {
	tr, _ := signedInTracker(t)
	created, err := tr.AddVisit(context.Background(), validVisit())
	require.NoError(t, err)
	require.NoError(t, tr.BeginEditVisit(created.ID))

	tr.HandleSession(context.Background(), nil)

	assert.Empty(t, tr.View().EditingVisit)
}
