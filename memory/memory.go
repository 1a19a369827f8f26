// Package memory is an in-process datasets.Store used for local development and tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meikuraledutech/datasets"
)

// Store keeps datasets in a map guarded by a mutex.
// Returned datasets are copies; callers may modify them freely.
type Store struct {
	mu    sync.RWMutex
	items map[string]*datasets.Dataset
	now   func() time.Time
}

func New() *Store {
	return &Store{items: make(map[string]*datasets.Dataset), now: time.Now}
}

func (s *Store) CreateSchema(ctx context.Context) error { return nil }

func (s *Store) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*datasets.Dataset)
	return nil
}

func (s *Store) CreateDataset(ctx context.Context, d *datasets.Dataset) (string, error) {
	if d.ID == "" {
		d.ID = d.UUID
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = datasets.StatusPending
	}
	if !d.Status.Valid() {
		return "", datasets.ErrInvalidStatus
	}
	if d.CreatedBy == "" {
		d.CreatedBy = "admin"
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[d.ID]; ok {
		return "", datasets.ErrDuplicateDataset
	}
	now := s.now().UTC()
	d.DateCreated, d.DateUpdated = now, now
	s.items[d.ID] = d.Clone()
	return d.ID, nil
}

func (s *Store) GetDataset(ctx context.Context, id string) (*datasets.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return d.Clone(), nil
}

func (s *Store) ListDatasets(ctx context.Context, q datasets.ListQuery) (*datasets.Page, error) {
	q = q.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*datasets.Dataset, 0, len(s.items))
	for _, d := range s.items {
		if match(d, q) {
			matched = append(matched, d)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].DateCreated.Equal(matched[j].DateCreated) {
			return matched[i].DateCreated.After(matched[j].DateCreated)
		}
		return matched[i].ID < matched[j].ID
	})

	page := &datasets.Page{Data: []datasets.Dataset{}, Pagination: datasets.NewPagination(q, len(matched))}
	for i := q.Offset(); i < len(matched) && i < q.Offset()+q.Limit; i++ {
		page.Data = append(page.Data, *matched[i].Clone())
	}
	return page, nil
}

func (s *Store) UpdateDataset(ctx context.Context, id string, u datasets.Update) (*datasets.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.items[id]
	if !ok {
		return nil, datasets.ErrDatasetNotFound
	}
	if u.Empty() {
		return d.Clone(), nil
	}
	if u.Title != nil {
		d.Title = *u.Title
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Tags != nil {
		d.Tags = slices.Clone(*u.Tags)
		if d.Tags == nil {
			d.Tags = []string{}
		}
	}
	if u.IsPublic != nil {
		d.IsPublic = *u.IsPublic
	}
	if u.Network != nil {
		d.Network = *u.Network
	}
	d.DateUpdated = s.now().UTC()
	return d.Clone(), nil
}

func (s *Store) SetStatus(ctx context.Context, id string, status datasets.Status) error {
	if !status.Valid() {
		return datasets.ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.items[id]
	if !ok {
		return datasets.ErrDatasetNotFound
	}
	d.Status = status
	d.DateUpdated = s.now().UTC()
	return nil
}

func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return datasets.ErrDatasetNotFound
	}
	delete(s.items, id)
	return nil
}

func match(d *datasets.Dataset, q datasets.ListQuery) bool {
	if q.PublicOnly && !d.IsPublic {
		return false
	}
	if q.Status != "" && d.Status != q.Status {
		return false
	}
	if q.Network != "" && d.Network != q.Network {
		return false
	}
	if q.Format != "" && !strings.EqualFold(d.Format, q.Format) {
		return false
	}
	if len(q.Tags) > 0 && !slices.ContainsFunc(d.Tags, func(t string) bool { return slices.Contains(q.Tags, t) }) {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		found := strings.Contains(strings.ToLower(d.Title), s) ||
			strings.Contains(strings.ToLower(d.Description), s) ||
			slices.ContainsFunc(d.Tags, func(t string) bool { return strings.Contains(strings.ToLower(t), s) })
		if !found {
			return false
		}
	}
	return true
}
