package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meikuraledutech/datasets"
)

const datasetColumns = `id, title, description, format, size, tags, file_structure, status,
	is_public, created_by, network, manifest_file, manifest_data, spec, spec_version,
	manifest_type, version, open_with, license, project_url, uuid, n_pieces, pieces,
	warnings, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(row scanner) (*datasets.Dataset, error) {
	var (
		d        datasets.Dataset
		status   string
		tree     []byte
		manifest []byte
		pieces   []byte
		warnings []string
	)
	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.Format, &d.Size, &d.Tags, &tree, &status,
		&d.IsPublic, &d.CreatedBy, &d.Network, &d.ManifestFile, &manifest, &d.Spec, &d.SpecVersion,
		&d.ManifestType, &d.Version, &d.OpenWith, &d.License, &d.ProjectURL, &d.UUID, &d.NPieces, &pieces,
		&warnings, &d.DateCreated, &d.DateUpdated,
	)
	if err != nil {
		return nil, err
	}
	d.Status = datasets.Status(status)
	if len(warnings) > 0 {
		d.Warnings = warnings
	}
	if len(manifest) > 0 {
		d.ManifestData = json.RawMessage(manifest)
	}
	if err := json.Unmarshal(tree, &d.FileStructure); err != nil {
		return nil, fmt.Errorf("decode file structure: %w", err)
	}
	if err := json.Unmarshal(pieces, &d.Pieces); err != nil {
		return nil, fmt.Errorf("decode pieces: %w", err)
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return &d, nil
}

// CreateDataset inserts a dataset.
// The manifest UUID is used as the ID when present; otherwise a UUID is generated.
// Returns ErrDuplicateDataset if a dataset with that ID already exists.
func (s *PGStore) CreateDataset(ctx context.Context, d *datasets.Dataset) (string, error) {
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
	if d.FileStructure == nil {
		d.FileStructure = []datasets.Node{}
	}
	if d.Pieces == nil {
		d.Pieces = []json.RawMessage{}
	}

	tree, err := json.Marshal(d.FileStructure)
	if err != nil {
		return "", fmt.Errorf("datasets: encode file structure: %w", err)
	}
	pieces, err := json.Marshal(d.Pieces)
	if err != nil {
		return "", fmt.Errorf("datasets: encode pieces: %w", err)
	}
	warnings := d.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO datasets (id, title, description, format, size, tags, file_structure, status,
			is_public, created_by, network, manifest_file, manifest_data, spec, spec_version,
			manifest_type, version, open_with, license, project_url, uuid, n_pieces, pieces, warnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING created_at, updated_at`,
		d.ID, d.Title, d.Description, d.Format, d.Size, d.Tags, tree, string(d.Status),
		d.IsPublic, d.CreatedBy, d.Network, d.ManifestFile, d.ManifestData, d.Spec, d.SpecVersion,
		d.ManifestType, d.Version, d.OpenWith, d.License, d.ProjectURL, d.UUID, d.NPieces, pieces, warnings,
	).Scan(&d.DateCreated, &d.DateUpdated)
	if err != nil {
		if isUniqueViolation(err) {
			return "", datasets.ErrDuplicateDataset
		}
		return "", fmt.Errorf("datasets: insert dataset: %w", err)
	}

	return d.ID, nil
}

// GetDataset fetches a single dataset by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetDataset(ctx context.Context, id string) (*datasets.Dataset, error) {
	d, err := scanDataset(s.db.QueryRow(ctx,
		`SELECT `+datasetColumns+` FROM datasets WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("datasets: get dataset: %w", err)
	}
	return d, nil
}

// ListDatasets returns one page of datasets matching q, newest first.
// Data is an empty slice (not nil) if none match.
func (s *PGStore) ListDatasets(ctx context.Context, q datasets.ListQuery) (*datasets.Page, error) {
	q = q.Normalize()
	where, args := buildFilter(q)

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM datasets`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("datasets: count datasets: %w", err)
	}

	n := len(args)
	args = append(args, q.Limit, q.Offset())
	rows, err := s.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM datasets%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
			datasetColumns, where, n+1, n+2),
		args...)
	if err != nil {
		return nil, fmt.Errorf("datasets: list datasets: %w", err)
	}
	defer rows.Close()

	page := &datasets.Page{Data: []datasets.Dataset{}}
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("datasets: scan dataset: %w", err)
		}
		page.Data = append(page.Data, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("datasets: rows datasets: %w", err)
	}

	page.Pagination = datasets.NewPagination(q, total)
	return page, nil
}

// UpdateDataset applies a partial update and returns the updated dataset.
// Returns ErrDatasetNotFound if the dataset doesn't exist.
func (s *PGStore) UpdateDataset(ctx context.Context, id string, u datasets.Update) (*datasets.Dataset, error) {
	if u.Empty() {
		d, err := s.GetDataset(ctx, id)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, datasets.ErrDatasetNotFound
		}
		return d, nil
	}

	set, args := buildUpdate(u)
	args = append(args, id)
	d, err := scanDataset(s.db.QueryRow(ctx,
		fmt.Sprintf(`UPDATE datasets SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
			strings.Join(set, ", "), len(args), datasetColumns),
		args...))
	if err != nil {
		if isNoRows(err) {
			return nil, datasets.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("datasets: update dataset: %w", err)
	}
	return d, nil
}

// SetStatus moves a dataset to a new review state.
// Returns ErrInvalidStatus for unknown states and ErrDatasetNotFound if the dataset doesn't exist.
func (s *PGStore) SetStatus(ctx context.Context, id string, status datasets.Status) error {
	if !status.Valid() {
		return datasets.ErrInvalidStatus
	}
	ct, err := s.db.Exec(ctx,
		`UPDATE datasets SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("datasets: set status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return datasets.ErrDatasetNotFound
	}
	return nil
}

// DeleteDataset deletes a dataset by its ID.
// Returns ErrDatasetNotFound if the dataset doesn't exist.
func (s *PGStore) DeleteDataset(ctx context.Context, id string) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("datasets: delete dataset: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return datasets.ErrDatasetNotFound
	}
	return nil
}
