// Package cache provides a read-through LRU cache in front of a store.DataSchemaStore.
//
// Schemas are read on every conversion request but change rarely, so fetches by name and by
// content type are cached. Any write through the cache purges it.
package cache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/joshmarlow/data-schema/pkg/schema"
	"github.com/joshmarlow/data-schema/pkg/server/store"
)

// DefaultSize is the number of schemas kept when no size is configured
const DefaultSize = 128

// Ensure Store implements store.DataSchemaStore
var _ store.DataSchemaStore = (*Store)(nil)

// Store caches the fetches of the wrapped store
type Store struct {
	next  store.DataSchemaStore
	cache *lru.Cache

	// generation counts purges. A fetch that loaded across a purge is not cached.
	mu         sync.Mutex
	generation uint64
}

// New wraps next with an LRU cache holding up to size entries
func New(next store.DataSchemaStore, size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema cache: %w", err)
	}
	return &Store{next: next, cache: c}, nil
}

func nameKey(name string) string {
	return "name:" + name
}

func modelKey(appLabel, model string) string {
	return "model:" + appLabel + "." + model
}

// Len returns the number of cached entries
func (s *Store) Len() int {
	return s.cache.Len()
}

// Purge empties the cache
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.cache.Purge()
}

func (s *Store) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Store) fetch(key string, load func() (*schema.DataSchema, error)) (*schema.DataSchema, error) {
	if v, ok := s.cache.Get(key); ok {
		return v.(*schema.DataSchema).Clone(), nil
	}
	gen := s.currentGeneration()
	ds, err := load()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		s.cache.Add(key, ds.Clone())
	}
	return ds, nil
}

// FetchDataSchema returns the cached schema or loads it from the wrapped store
func (s *Store) FetchDataSchema(name string) (*schema.DataSchema, error) {
	return s.fetch(nameKey(name), func() (*schema.DataSchema, error) {
		return s.next.FetchDataSchema(name)
	})
}

// FetchDataSchemaForModel returns the cached schema or loads it from the wrapped store
func (s *Store) FetchDataSchemaForModel(appLabel, model string) (*schema.DataSchema, error) {
	return s.fetch(modelKey(appLabel, model), func() (*schema.DataSchema, error) {
		return s.next.FetchDataSchemaForModel(appLabel, model)
	})
}

func (s *Store) ListDataSchemas() ([]schema.DataSchema, error) {
	return s.next.ListDataSchemas()
}

// Transaction runs fn against the wrapped store's transaction and purges the cache afterwards
func (s *Store) Transaction(fn func(store.DataSchemaStore) error) error {
	defer s.Purge()
	return s.next.Transaction(fn)
}

func (s *Store) CreateDataSchema(ds *schema.DataSchema) error {
	defer s.Purge()
	return s.next.CreateDataSchema(ds)
}

func (s *Store) DeleteDataSchema(name string) error {
	defer s.Purge()
	return s.next.DeleteDataSchema(name)
}

func (s *Store) UpsertFieldSchema(name string, f schema.FieldSchema) error {
	defer s.Purge()
	return s.next.UpsertFieldSchema(name, f)
}

func (s *Store) DeleteFieldSchema(name, key string) error {
	defer s.Purge()
	return s.next.DeleteFieldSchema(name, key)
}

func (s *Store) SyncFieldSchemas(name string, fields []schema.FieldSchema) error {
	defer s.Purge()
	return s.next.SyncFieldSchemas(name, fields)
}
