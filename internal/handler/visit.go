package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chargelog/chargelog/internal/domain"
	"github.com/chargelog/chargelog/internal/middleware"
	"github.com/chargelog/chargelog/internal/tracker"
)

// visitRequest is the body of POST /visits and PUT /visits/{id}.
type visitRequest struct {
	VehicleID      string                   `json:"vehicleId"`
	Location       string                   `json:"location"`
	VisitDate      string                   `json:"visitDate"`
	EnergyAddedKwh *float64                 `json:"kwhAdded"`
	Notes          string                   `json:"notes"`
	Supercharger   *domain.ChargingLocation `json:"supercharger"`
}

func (r visitRequest) toDomain() domain.Visit {
	return domain.Visit{
		VehicleID:      r.VehicleID,
		LocationLabel:  r.Location,
		VisitDate:      r.VisitDate,
		EnergyAddedKwh: r.EnergyAddedKwh,
		Notes:          r.Notes,
		Location:       r.Supercharger,
	}
}

// visitListResponse carries the filtered visit list. Known reports whether
// the list is confirmed by a successful load; a false value means the load
// failed and the empty list must not be read as "no visits".
type visitListResponse struct {
	Visits []domain.Visit `json:"visits"`
	Known  bool           `json:"known"`
}

// userTracker resolves the per-identity tracker for an authenticated request.
func (s *Server) userTracker(r *http.Request) *tracker.Tracker {
	return s.trackers.For(r.Context(), middleware.SessionFrom(r.Context()))
}

// ListVisits handles GET /visits. The optional ?vehicle= parameter narrows
// the list to one vehicle; an empty or absent value means all.
func (s *Server) ListVisits(w http.ResponseWriter, r *http.Request) {
	tr := s.userTracker(r)
	tr.SelectVehicle(r.Context(), r.URL.Query().Get("vehicle"))

	view := tr.View()
	respondJSON(w, http.StatusOK, visitListResponse{Visits: view.Visits, Known: view.VisitsKnown})
}

// CreateVisit handles POST /visits.
func (s *Server) CreateVisit(w http.ResponseWriter, r *http.Request) {
	var req visitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestError(w, "request body must be a JSON visit object")
		return
	}

	created, err := s.userTracker(r).AddVisit(r.Context(), req.toDomain())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// UpdateVisit handles PUT /visits/{id}.
func (s *Server) UpdateVisit(w http.ResponseWriter, r *http.Request) {
	var req visitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestError(w, "request body must be a JSON visit object")
		return
	}

	if err := s.userTracker(r).UpdateVisit(r.Context(), chi.URLParam(r, "id"), req.toDomain()); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteVisit handles DELETE /visits/{id}. The client resolves the
// confirmation dialog and sends the outcome as ?confirmed=true; anything
// else leaves the visit alone.
func (s *Server) DeleteVisit(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirmed") == "true"

	if err := s.userTracker(r).DeleteVisit(r.Context(), chi.URLParam(r, "id"), confirmed); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStats handles GET /visits/stats, aggregated over the current filter.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	tr := s.userTracker(r)
	tr.SelectVehicle(r.Context(), r.URL.Query().Get("vehicle"))

	respondJSON(w, http.StatusOK, tr.Stats())
}

// GetRoute handles GET /visits/route, projected over the current filter.
func (s *Server) GetRoute(w http.ResponseWriter, r *http.Request) {
	tr := s.userTracker(r)
	tr.SelectVehicle(r.Context(), r.URL.Query().Get("vehicle"))

	respondJSON(w, http.StatusOK, tr.Route())
}
