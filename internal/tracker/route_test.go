package tracker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargelog/chargelog/internal/domain"
	"github.com/chargelog/chargelog/internal/tracker"
)

func mappableVisit(id, date string, lat, lng float64) domain.Visit {
	return domain.Visit{
		ID:            id,
		LocationLabel: "Stop " + id,
		VisitDate:     date,
		Location: &domain.ChargingLocation{
			Name:        "Stop " + id,
			Coordinates: &domain.Coordinates{Latitude: lat, Longitude: lng},
		},
	}
}

func TestProjectRoute_ExcludesVisitsWithoutCoordinates(t *testing.T) {
	visits := []domain.Visit{
		mappableVisit("a", "2026-01-01", 48.8, 2.3),
		{ID: "b", LocationLabel: "Manual entry", VisitDate: "2026-01-02"},
		{ID: "c", LocationLabel: "Snapshot, no GPS", VisitDate: "2026-01-03",
			Location: &domain.ChargingLocation{Name: "Snapshot, no GPS"}},
	}

	got := tracker.ProjectRoute(visits)

	require.Len(t, got.Markers, 1)
	assert.Equal(t, "a", got.Markers[0].VisitID)
	assert.Empty(t, got.Polyline, "a single mappable visit draws no line")
}

func TestProjectRoute_MarkersKeepInputOrder(t *testing.T) {
	// Input arrives most-recent-first; markers must not be re-sorted.
	visits := []domain.Visit{
		mappableVisit("new", "2026-05-01", 52.5, 13.4),
		mappableVisit("old", "2026-01-01", 48.8, 2.3),
	}

	got := tracker.ProjectRoute(visits)

	require.Len(t, got.Markers, 2)
	assert.Equal(t, "new", got.Markers[0].VisitID)
	assert.Equal(t, "old", got.Markers[1].VisitID)
}

func TestProjectRoute_PolylineIsChronological(t *testing.T) {
	visits := []domain.Visit{
		mappableVisit("third", "2026-05-01", 3, 3),
		mappableVisit("first", "2026-01-01", 1, 1),
		mappableVisit("second", "2026-03-01", 2, 2),
	}

	got := tracker.ProjectRoute(visits)

	require.Len(t, got.Polyline, 3)
	assert.Equal(t, domain.Coordinates{Latitude: 1, Longitude: 1}, got.Polyline[0])
	assert.Equal(t, domain.Coordinates{Latitude: 2, Longitude: 2}, got.Polyline[1])
	assert.Equal(t, domain.Coordinates{Latitude: 3, Longitude: 3}, got.Polyline[2])
}

func TestProjectRoute_SameDayVisitsKeepRelativeOrder(t *testing.T) {
	visits := []domain.Visit{
		mappableVisit("a", "2026-01-01", 1, 1),
		mappableVisit("b", "2026-01-01", 2, 2),
	}

	got := tracker.ProjectRoute(visits)

	require.Len(t, got.Polyline, 2)
	assert.Equal(t, domain.Coordinates{Latitude: 1, Longitude: 1}, got.Polyline[0])
	assert.Equal(t, domain.Coordinates{Latitude: 2, Longitude: 2}, got.Polyline[1])
}

func TestProjectRoute_EmptyList(t *testing.T) {
	got := tracker.ProjectRoute(nil)

	assert.NotNil(t, got.Markers)
	assert.NotNil(t, got.Polyline)
	assert.Empty(t, got.Markers)
}
