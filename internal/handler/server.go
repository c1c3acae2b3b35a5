// Package handler implements the HTTP surface of the charging-visit tracker.
// All handlers are methods on Server. Methods are split into domain-specific
// files (auth.go, visit.go, etc.) but all share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chargelog/chargelog/internal/domain"
	"github.com/chargelog/chargelog/internal/porter"
	"github.com/chargelog/chargelog/internal/session"
	"github.com/chargelog/chargelog/internal/tracker"
)

// Sessions defines the authentication operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database. *session.Manager
// satisfies it.
type Sessions interface {
	SignUp(ctx context.Context, email, password, displayName string) (session.Session, error)
	SignIn(ctx context.Context, email, password string) (session.Session, error)
	SignOut(ctx context.Context) error
}

// Tokens issues API tokens for authenticated sessions. *session.LocalAuth
// satisfies it.
type Tokens interface {
	IssueToken(s session.Session) (string, error)
}

// LocationSearcher answers charging-location autocomplete queries.
// *directory.Directory satisfies it.
type LocationSearcher interface {
	Search(query string) []domain.ChargingLocation
}

// Porter exports and imports snapshot files. *porter.Engine satisfies it.
type Porter interface {
	Export(ctx context.Context, userID string) (porter.Snapshot, error)
	Import(ctx context.Context, userID string, data []byte, strategy porter.Strategy) (porter.Report, error)
}

// Server implements every API endpoint.
type Server struct {
	sessions  Sessions
	tokens    Tokens
	trackers  *tracker.Registry
	locations LocationSearcher
	porter    Porter
	openapi   []byte
}

// NewServer constructs the Server with all its dependencies.
func NewServer(sessions Sessions, tokens Tokens, trackers *tracker.Registry, locations LocationSearcher, p Porter, openapi []byte) *Server {
	return &Server{
		sessions:  sessions,
		tokens:    tokens,
		trackers:  trackers,
		locations: locations,
		porter:    p,
		openapi:   openapi,
	}
}

// Routes builds the router. authn wraps every route that requires a signed-in
// identity; the caller supplies it so tests can stub authentication.
func (s *Server) Routes(authn func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Post("/auth/signup", s.SignUp)
	r.Post("/auth/signin", s.SignIn)

	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Post("/auth/signout", s.SignOut)

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", s.ListVehicles)
			r.Post("/", s.CreateVehicle)
			r.Put("/{id}", s.UpdateVehicle)
			r.Delete("/{id}", s.DeleteVehicle)
		})

		r.Route("/visits", func(r chi.Router) {
			r.Get("/", s.ListVisits)
			r.Post("/", s.CreateVisit)
			r.Get("/stats", s.GetStats)
			r.Get("/route", s.GetRoute)
			r.Put("/{id}", s.UpdateVisit)
			r.Delete("/{id}", s.DeleteVisit)
		})

		r.Get("/locations/search", s.SearchLocations)

		r.Get("/export", s.GetExport)
		r.Post("/import", s.PostImport)
	})

	return r
}
