package datasets

import (
	"context"
	"errors"
)

var (
	ErrDatasetNotFound  = errors.New("datasets: dataset not found")
	ErrDuplicateDataset = errors.New("datasets: dataset already exists")
	ErrInvalidStatus    = errors.New("datasets: invalid status")
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ListQuery filters and paginates ListDatasets.
// Zero values mean "no filter"; Page and Limit are normalized by Normalize.
type ListQuery struct {
	Search     string
	Format     string
	Tags       []string
	Status     Status
	Network    string
	PublicOnly bool
	Page       int
	Limit      int
}

// Normalize clamps paging to sane bounds.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q
}

// Offset is the number of rows skipped before the current page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination describes where a Page sits in the full result set.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Page is one page of ListDatasets results.
type Page struct {
	Data       []Dataset  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination computes the page count for total rows under q.
func NewPagination(q ListQuery, total int) Pagination {
	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return Pagination{Page: q.Page, Limit: q.Limit, Total: total, Pages: pages}
}

// Update is a partial edit of a dataset. Nil fields are left unchanged.
type Update struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	IsPublic    *bool     `json:"isPublic,omitempty"`
	Network     *string   `json:"network,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Tags == nil && u.IsPublic == nil && u.Network == nil
}

// Store defines the contract for persisting and retrieving datasets.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Datasets
	CreateDataset(ctx context.Context, d *Dataset) (string, error)
	GetDataset(ctx context.Context, id string) (*Dataset, error)
	ListDatasets(ctx context.Context, q ListQuery) (*Page, error)
	UpdateDataset(ctx context.Context, id string, u Update) (*Dataset, error)
	SetStatus(ctx context.Context, id string, status Status) error
	DeleteDataset(ctx context.Context, id string) error
}
