package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargelog/chargelog/internal/porter"
)

func TestGetExport(t *testing.T) {
	ts := newTestServer(t)
	createVisit(t, ts, `{"location":"Paris","visitDate":"2026-03-14"}`)

	rec := ts.do(t, http.MethodGet, "/export", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "chargelog-export-")

	var snap porter.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, porter.SnapshotVersion, snap.Version)
	assert.Len(t, snap.Visits, 1)
}

func TestPostImport_Merge(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/import",
		`{"version":"1.0","visits":[{"id":"v1","location":"Paris","visitDate":"2026-03-14"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var report porter.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.VisitsImported)
}

func TestPostImport_InvalidFormat(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/import", `{"version":"1.0"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_format")
}

func TestPostImport_UnknownStrategy(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/import?strategy=upsert",
		`{"version":"1.0","visits":[]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExportImportRoundTripOverHTTP(t *testing.T) {
	src := newTestServer(t)
	createVisit(t, src, `{"location":"Paris","visitDate":"2026-03-14"}`)

	export := src.do(t, http.MethodGet, "/export", "")
	require.Equal(t, http.StatusOK, export.Code)

	dst := newTestServer(t)
	rec := dst.do(t, http.MethodPost, "/import?strategy=merge", export.Body.String())

	require.Equal(t, http.StatusOK, rec.Code)

	var report porter.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.VisitsImported)
}
