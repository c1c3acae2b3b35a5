// Package directory loads and searches the external charging-location
// directory. The full site list is fetched once at startup and held in
// memory; it is a read-only lookup table for autocomplete-style search.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/chargelog/chargelog/internal/domain"
)

// maxResults caps how many locations a single search returns.
const maxResults = 8

// minQueryLen is the shortest query that produces results. Shorter queries
// would match most of the directory on the first keystroke.
const minQueryLen = 2

// Directory holds the in-memory charging-location list.
// Safe for concurrent Load and Search.
type Directory struct {
	url    string
	client *http.Client
	log    *slog.Logger

	mu        sync.RWMutex
	locations []domain.ChargingLocation
}

// New constructs a Directory that fetches from url.
// Call Load once before serving searches.
func New(url string, log *slog.Logger) *Directory {
	return &Directory{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// Load fetches the bulk location list. Transient failures are retried with
// fibonacci backoff; if every attempt fails the directory stays empty and
// the error is returned so the caller can log it. An empty directory is
// non-fatal — searches simply return no matches and manual entry still works.
func (d *Directory) Load(ctx context.Context) error {
	var locations []domain.ChargingLocation

	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		locations, err = d.fetch(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("directory.Directory.Load: %w", err)
	}

	d.mu.Lock()
	d.locations = locations
	d.mu.Unlock()

	d.log.Info("location directory loaded", "count", len(locations))
	return nil
}

func (d *Directory) fetch(ctx context.Context) ([]domain.ChargingLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sites: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sites: status %d", resp.StatusCode)
	}

	var locations []domain.ChargingLocation
	if err := json.NewDecoder(resp.Body).Decode(&locations); err != nil {
		return nil, fmt.Errorf("decode sites: %w", err)
	}
	return locations, nil
}

// Len reports how many locations are loaded.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.locations)
}

// Search returns up to 8 locations matching query, ranked by the position of
// the first match and then by name. Matching is a case-insensitive substring
// test against name, city, state, country, and the "city state" pair.
// Queries shorter than two characters yield no results.
func (d *Directory) Search(query string) []domain.ChargingLocation {
	q := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(q)) < minQueryLen {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	type ranked struct {
		loc domain.ChargingLocation
		pos int
	}

	var matches []ranked
	for _, loc := range d.locations {
		if pos, ok := matchPosition(loc, q); ok {
			matches = append(matches, ranked{loc: loc, pos: pos})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].pos != matches[j].pos {
			return matches[i].pos < matches[j].pos
		}
		return matches[i].loc.Name < matches[j].loc.Name
	})

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	out := make([]domain.ChargingLocation, len(matches))
	for i, m := range matches {
		out[i] = m.loc
	}
	return out
}

// matchPosition returns the earliest index at which q appears in any of the
// searchable fields, and whether it appears at all.
func matchPosition(loc domain.ChargingLocation, q string) (int, bool) {
	city := strings.ToLower(loc.Address.City)
	state := strings.ToLower(loc.Address.State)
	fields := []string{
		strings.ToLower(loc.Name),
		city,
		state,
		strings.ToLower(loc.Address.Country),
		city + " " + state,
	}

	best := -1
	for _, f := range fields {
		if i := strings.Index(f, q); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best, best >= 0
}
