package tracker

import (
	"sort"

	"github.com/chargelog/chargelog/internal/domain"
)

// Marker is a mappable visit.
type Marker struct {
	VisitID   string             `json:"visitId"`
	Label     string             `json:"label"`
	VisitDate string             `json:"visitDate"`
	Position  domain.Coordinates `json:"position"`
}

// Route is the map projection over a visit list: one marker per visit with
// coordinates, plus a polyline connecting them in date order.
type Route struct {
	Markers []Marker `json:"markers"`

	// Polyline holds the marker positions sorted by ascending visit date,
	// present only when at least two visits are mappable. Ties keep the
	// markers' relative order.
	Polyline []domain.Coordinates `json:"polyline"`
}

// ProjectRoute computes the map projection for a visit list. Visits without
// coordinates are excluded entirely; they appear on no map surface. Markers
// preserve the input order, the polyline re-sorts by date.
func ProjectRoute(visits []domain.Visit) Route {
	route := Route{
		Markers:  []Marker{},
		Polyline: []domain.Coordinates{},
	}

	for _, v := range visits {
		if !v.HasCoordinates() {
			continue
		}
		route.Markers = append(route.Markers, Marker{
			VisitID:   v.ID,
			Label:     v.LocationLabel,
			VisitDate: v.VisitDate,
			Position:  *v.Location.Coordinates,
		})
	}

	// A single point is not a route.
	if len(route.Markers) >= 2 {
		ordered := append([]Marker(nil), route.Markers...)
		sort.SliceStable(ordered, func(i, j int) bool {
			// Dates are YYYY-MM-DD strings, so lexicographic order is
			// chronological order.
			return ordered[i].VisitDate < ordered[j].VisitDate
		})
		for _, m := range ordered {
			route.Polyline = append(route.Polyline, m.Position)
		}
	}

	return route
}
