package handler

// GET /export and POST /import. Export downloads the full snapshot
// regardless of the active vehicle filter; import uploads one, with
// ?strategy=merge|replace.

import (
	"io"
	"net/http"
	"time"

	"github.com/chargelog/chargelog/internal/middleware"
	"github.com/chargelog/chargelog/internal/porter"
)

// GetExport handles GET /export. The snapshot is offered as a download with
// a date-stamped filename.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())

	snap, err := s.porter.Export(r.Context(), sess.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	filename := "chargelog-export-" + snap.ExportDate.Format(time.DateOnly) + ".json"
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	respondJSON(w, http.StatusOK, snap)
}

// PostImport handles POST /import?strategy=merge|replace. The body is a
// snapshot file; the response is the import report. Oversized bodies are
// cut off by the max-body-size middleware before reaching this handler.
func (s *Server) PostImport(w http.ResponseWriter, r *http.Request) {
	strategy, err := porter.ParseStrategy(r.URL.Query().Get("strategy"))
	if err != nil {
		respondError(w, err)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		requestError(w, "could not read request body")
		return
	}

	sess := middleware.SessionFrom(r.Context())
	report, err := s.porter.Import(r.Context(), sess.UserID, data, strategy)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
