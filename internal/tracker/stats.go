package tracker

import (
	"math"

	"github.com/chargelog/chargelog/internal/domain"
)

// Stats is the aggregate projection over a visit list.
type Stats struct {
	TotalVisits     int     `json:"totalVisits"`
	UniqueLocations int     `json:"uniqueLocations"`
	Countries       int     `json:"countries"`
	TotalEnergyKwh  float64 `json:"totalEnergyKwh"`
}

// ProjectStats computes the aggregates for a visit list. It is a pure
// function of its input; an empty or nil list yields all zeroes.
//
// Locations are deduplicated by their display label, countries by the
// country of the attached charging location snapshot. Visits without a
// snapshot contribute no country; visits without an energy amount
// contribute nothing to the total. The energy total is rounded to one
// decimal place to keep float noise out of the result.
func ProjectStats(visits []domain.Visit) Stats {
	locations := make(map[string]struct{})
	countries := make(map[string]struct{})
	var energy float64

	for _, v := range visits {
		locations[v.LocationLabel] = struct{}{}
		if v.Location != nil && v.Location.Address.Country != "" {
			countries[v.Location.Address.Country] = struct{}{}
		}
		if v.EnergyAddedKwh != nil {
			energy += *v.EnergyAddedKwh
		}
	}

	return Stats{
		TotalVisits:     len(visits),
		UniqueLocations: len(locations),
		Countries:       len(countries),
		TotalEnergyKwh:  math.Round(energy*10) / 10,
	}
}
