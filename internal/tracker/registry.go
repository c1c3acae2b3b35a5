package tracker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/chargelog/chargelog/internal/session"
	"github.com/chargelog/chargelog/internal/store"
)

// Registry hands out one Tracker per identity. Trackers are created lazily
// on first use, with their initial load driven by the session that reached
// them, and torn down on sign-out.
type Registry struct {
	vehicles *store.Vehicles
	visits   *store.Visits
	log      *slog.Logger

	mu     sync.Mutex
	active map[string]*Tracker
}

// NewRegistry constructs an empty Registry over the given store wrappers.
func NewRegistry(vehicles *store.Vehicles, visits *store.Visits, log *slog.Logger) *Registry {
	return &Registry{
		vehicles: vehicles,
		visits:   visits,
		log:      log,
		active:   make(map[string]*Tracker),
	}
}

// For returns the tracker for the session's identity, creating and loading
// it on first use.
func (r *Registry) For(ctx context.Context, s *session.Session) *Tracker {
	r.mu.Lock()
	tr, ok := r.active[s.UserID]
	if !ok {
		tr = New(r.vehicles, r.visits, r.log)
		r.active[s.UserID] = tr
	}
	r.mu.Unlock()

	if !ok {
		tr.HandleSession(ctx, s)
	}
	return tr
}

// Drop tears down the identity's tracker on sign-out. Any in-flight loads
// for it are invalidated before it is released.
func (r *Registry) Drop(ctx context.Context, userID string) {
	r.mu.Lock()
	tr, ok := r.active[userID]
	delete(r.active, userID)
	r.mu.Unlock()

	if ok {
		tr.HandleSession(ctx, nil)
	}
}
