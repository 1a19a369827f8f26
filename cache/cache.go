// Package cache wraps a datasets.Store with an in-memory LRU for single-dataset reads.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/meikuraledutech/datasets"
)

const DefaultSize = 512

// Store caches GetDataset results of the wrapped store.
// Every write through Store evicts the affected ID; writes made directly on
// the wrapped store are not seen until the entry is evicted.
type Store struct {
	datasets.Store
	entries *lru.Cache[string, *datasets.Dataset]
}

// New wraps next with a cache holding up to size datasets.
func New(next datasets.Store, size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, *datasets.Dataset](size)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Store{Store: next, entries: entries}, nil
}

// GetDataset returns the cached dataset or loads it from the wrapped store.
// Callers get their own copy. Misses (nil, nil) are not cached.
func (s *Store) GetDataset(ctx context.Context, id string) (*datasets.Dataset, error) {
	if d, ok := s.entries.Get(id); ok {
		return d.Clone(), nil
	}
	d, err := s.Store.GetDataset(ctx, id)
	if err != nil || d == nil {
		return d, err
	}
	s.entries.Add(id, d.Clone())
	return d, nil
}

func (s *Store) CreateDataset(ctx context.Context, d *datasets.Dataset) (string, error) {
	id, err := s.Store.CreateDataset(ctx, d)
	if id != "" {
		s.entries.Remove(id)
	}
	return id, err
}

func (s *Store) UpdateDataset(ctx context.Context, id string, u datasets.Update) (*datasets.Dataset, error) {
	defer s.entries.Remove(id)
	return s.Store.UpdateDataset(ctx, id, u)
}

func (s *Store) SetStatus(ctx context.Context, id string, status datasets.Status) error {
	defer s.entries.Remove(id)
	return s.Store.SetStatus(ctx, id, status)
}

func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	defer s.entries.Remove(id)
	return s.Store.DeleteDataset(ctx, id)
}

func (s *Store) DropSchema(ctx context.Context) error {
	defer s.entries.Purge()
	return s.Store.DropSchema(ctx)
}

// Len is the number of cached datasets.
func (s *Store) Len() int {
	return s.entries.Len()
}
