package handler

import (
	"net/http"
)

// SearchLocations handles GET /locations/search?q=. Queries shorter than
// the directory's minimum yield an empty list, mirroring the autocomplete
// behavior: nothing is suggested until the user has typed enough.
func (s *Server) SearchLocations(w http.ResponseWriter, r *http.Request) {
	results := s.locations.Search(r.URL.Query().Get("q"))
	if results == nil {
		// Keep the wire format an array even when nothing matches.
		respondJSON(w, http.StatusOK, []struct{}{})
		return
	}
	respondJSON(w, http.StatusOK, results)
}
