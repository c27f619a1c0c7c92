package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"devscope/internal/models"
)

// MemoryStore is an in-process Store used in tests and when no database is
// configured.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]models.Document
	now  func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]models.Document),
		now:  time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, collection, key string) (*models.Document, error) {
	if err := validate(collection, key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	doc.Value = copyMap(doc.Value)
	return &doc, nil
}

func (s *MemoryStore) Put(_ context.Context, collection, key string, value models.JSONMap) error {
	if err := validate(collection, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.docs[collection]
	if !ok {
		coll = make(map[string]models.Document)
		s.docs[collection] = coll
	}

	now := s.now()
	doc, exists := coll[key]
	if !exists {
		doc = models.Document{Collection: collection, Key: key, CreatedAt: now}
	}
	doc.Value = copyMap(value)
	doc.UpdatedAt = now
	coll[key] = doc
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, key string) error {
	if err := validate(collection, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs[collection], key)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, collection string, order Order) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Document, 0, len(s.docs[collection]))
	for _, doc := range s.docs[collection] {
		doc.Value = copyMap(doc.Value)
		result = append(result, doc)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			if order == OrderCreatedDesc {
				return a.Key > b.Key
			}
			return a.Key < b.Key
		}
		if order == OrderCreatedDesc {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) DeleteAll(_ context.Context, collection string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.docs[collection])
	delete(s.docs, collection)
	return n, nil
}

func copyMap(m models.JSONMap) models.JSONMap {
	if m == nil {
		return nil
	}
	out := make(models.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
