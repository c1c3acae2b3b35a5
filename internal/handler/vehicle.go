package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chargelog/chargelog/internal/domain"
)

// vehicleRequest is the body of POST /vehicles and PUT /vehicles/{id}.
type vehicleRequest struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Year  string `json:"year"`
	Color string `json:"color"`
	VIN   string `json:"vin"`
}

func (r vehicleRequest) toDomain() domain.Vehicle {
	return domain.Vehicle{
		Name:  r.Name,
		Model: r.Model,
		Year:  r.Year,
		Color: r.Color,
		VIN:   r.VIN,
	}
}

// ListVehicles handles GET /vehicles.
func (s *Server) ListVehicles(w http.ResponseWriter, r *http.Request) {
	view := s.userTracker(r).View()
	respondJSON(w, http.StatusOK, view.Vehicles)
}

// CreateVehicle handles POST /vehicles.
func (s *Server) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestError(w, "request body must be a JSON vehicle object")
		return
	}

	created, err := s.userTracker(r).AddVehicle(r.Context(), req.toDomain())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// UpdateVehicle handles PUT /vehicles/{id}.
func (s *Server) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestError(w, "request body must be a JSON vehicle object")
		return
	}

	if err := s.userTracker(r).UpdateVehicle(r.Context(), chi.URLParam(r, "id"), req.toDomain()); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteVehicle handles DELETE /vehicles/{id}. Visits attributed to the
// vehicle survive with a dangling reference, shown as unassigned.
func (s *Server) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := s.userTracker(r).DeleteVehicle(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
