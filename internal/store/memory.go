package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chargelog/chargelog/internal/domain"
)

// memStore is an in-memory Store implementation mirroring the Postgres
// semantics, including the top-level JSON merge on Update. It backs the unit
// tests that need a Store without a database. Thread-safe.
type memStore struct {
	mu   sync.RWMutex
	docs map[memKey]Document
}

type memKey struct {
	userID string
	kind   Kind
	id     string
}

// NewMemStore returns an empty in-memory Store.
func NewMemStore() Store {
	return &memStore{docs: make(map[memKey]Document)}
}

func (s *memStore) Create(ctx context.Context, userID string, kind Kind, data []byte) (Document, error) {
	doc := Document{
		ID:        uuid.NewString(),
		Data:      append([]byte(nil), data...),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.docs[memKey{userID, kind, doc.ID}] = doc
	s.mu.Unlock()
	return doc, nil
}

func (s *memStore) Put(ctx context.Context, userID string, kind Kind, id string, data []byte) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memKey{userID, kind, id}
	doc, ok := s.docs[key]
	if ok {
		now := time.Now().UTC()
		doc.Data = append([]byte(nil), data...)
		doc.UpdatedAt = &now
	} else {
		doc = Document{
			ID:        id,
			Data:      append([]byte(nil), data...),
			CreatedAt: time.Now().UTC(),
		}
	}
	s.docs[key] = doc
	return doc, nil
}

func (s *memStore) Get(ctx context.Context, userID string, kind Kind, id string) (Document, error) {
	s.mu.RLock()
	doc, ok := s.docs[memKey{userID, kind, id}]
	s.mu.RUnlock()

	if !ok {
		return Document{}, fmt.Errorf("store.memStore.Get: %w", domain.ErrNotFound)
	}
	return doc, nil
}

func (s *memStore) List(ctx context.Context, userID string, kind Kind, orderBy string) ([]Document, error) {
	s.mu.RLock()
	var docs []Document
	for k, d := range s.docs {
		if k.userID == userID && k.kind == kind {
			docs = append(docs, d)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(docs, func(i, j int) bool {
		if orderBy == "createdAt" {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return jsonField(docs[i].Data, orderBy) > jsonField(docs[j].Data, orderBy)
	})
	return docs, nil
}

func (s *memStore) Update(ctx context.Context, userID string, kind Kind, id string, patch []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memKey{userID, kind, id}
	doc, ok := s.docs[key]
	if !ok {
		return fmt.Errorf("store.memStore.Update: %w", domain.ErrNotFound)
	}

	merged, err := mergeJSON(doc.Data, patch)
	if err != nil {
		return fmt.Errorf("store.memStore.Update: %w", err)
	}

	now := time.Now().UTC()
	doc.Data = merged
	doc.UpdatedAt = &now
	s.docs[key] = doc
	return nil
}

func (s *memStore) Delete(ctx context.Context, userID string, kind Kind, id string) error {
	s.mu.Lock()
	delete(s.docs, memKey{userID, kind, id})
	s.mu.Unlock()
	return nil
}

// jsonField extracts a top-level field of a JSON object as its string form.
// Missing fields sort last (empty string).
func jsonField(data []byte, field string) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return ""
	}
	raw, ok := obj[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// mergeJSON merges the top-level keys of patch into base, mirroring the
// JSONB || semantics of the Postgres implementation.
func mergeJSON(base, patch []byte) ([]byte, error) {
	var dst, src map[string]json.RawMessage
	if err := json.Unmarshal(base, &dst); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, &src); err != nil {
		return nil, err
	}
	for k, v := range src {
		dst[k] = v
	}
	return json.Marshal(dst)
}
