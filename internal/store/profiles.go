package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chargelog/chargelog/internal/domain"
)

// Profiles is the typed wrapper for the per-user profile record.
// A user has at most one profile; it is created once and never overwritten.
type Profiles struct {
	s Store
}

// NewProfiles constructs a Profiles wrapper over the given Store.
func NewProfiles(s Store) *Profiles {
	return &Profiles{s: s}
}

// Get returns the user's profile. Returns domain.ErrNotFound when the user
// has no profile yet.
func (p *Profiles) Get(ctx context.Context, userID string) (domain.Profile, error) {
	docs, err := p.s.List(ctx, userID, KindProfile, "createdAt")
	if err != nil {
		return domain.Profile{}, fmt.Errorf("store.Profiles.Get: %w", err)
	}
	if len(docs) == 0 {
		return domain.Profile{}, fmt.Errorf("store.Profiles.Get: %w", domain.ErrNotFound)
	}
	return decodeProfile(docs[0])
}

// Ensure creates the profile if none exists and returns the stored record.
// An existing profile is returned unchanged — first write wins here, unlike
// every other collection.
func (p *Profiles) Ensure(ctx context.Context, userID string, profile domain.Profile) (domain.Profile, error) {
	existing, err := p.Get(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Profile{}, err
	}

	data, err := json.Marshal(profilePayload(profile))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("store.Profiles.Ensure: marshal: %w", err)
	}

	doc, err := p.s.Create(ctx, userID, KindProfile, data)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("store.Profiles.Ensure: %w", err)
	}
	return decodeProfile(doc)
}

type profileDoc struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
}

func profilePayload(p domain.Profile) profileDoc {
	return profileDoc{
		DisplayName: p.DisplayName,
		Email:       p.Email,
		PhotoURL:    p.PhotoURL,
	}
}

func decodeProfile(doc Document) (domain.Profile, error) {
	var payload profileDoc
	if err := json.Unmarshal(doc.Data, &payload); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile %s: %w", doc.ID, err)
	}
	return domain.Profile{
		DisplayName: payload.DisplayName,
		Email:       payload.Email,
		PhotoURL:    payload.PhotoURL,
		CreatedAt:   doc.CreatedAt,
	}, nil
}
