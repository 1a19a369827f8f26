package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS datasets (
    id             TEXT PRIMARY KEY,
    title          TEXT NOT NULL,
    description    TEXT NOT NULL,
    format         TEXT NOT NULL,
    size           BIGINT NOT NULL DEFAULT 0,
    tags           TEXT[] NOT NULL DEFAULT '{}',
    file_structure JSONB NOT NULL DEFAULT '[]',
    status         TEXT NOT NULL DEFAULT 'pending'
                   CHECK (status IN ('pending', 'approved', 'rejected')),
    is_public      BOOLEAN NOT NULL DEFAULT TRUE,
    created_by     TEXT NOT NULL DEFAULT 'admin',
    network        TEXT NOT NULL DEFAULT '',
    manifest_file  TEXT NOT NULL DEFAULT '',
    manifest_data  JSONB,
    spec           TEXT NOT NULL DEFAULT '',
    spec_version   TEXT NOT NULL DEFAULT '',
    manifest_type  TEXT NOT NULL DEFAULT '',
    version        TEXT NOT NULL DEFAULT '',
    open_with      TEXT NOT NULL DEFAULT '',
    license        TEXT NOT NULL DEFAULT '',
    project_url    TEXT NOT NULL DEFAULT '',
    uuid           TEXT NOT NULL DEFAULT '',
    n_pieces       BIGINT,
    pieces         JSONB NOT NULL DEFAULT '[]',
    warnings       TEXT[] NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_datasets_status     ON datasets(status);
CREATE INDEX IF NOT EXISTS idx_datasets_network    ON datasets(network);
CREATE INDEX IF NOT EXISTS idx_datasets_created_at ON datasets(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_datasets_tags       ON datasets USING GIN (tags);
`

// CreateSchema creates the datasets table if it doesn't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the datasets table.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS datasets CASCADE;`)
	return err
}
