package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// pgxPool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool pgxPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 5
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	dataset_id TEXT NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	row_count  INTEGER NOT NULL,
	payload    JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_dataset ON snapshots(dataset_id, fetched_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO snapshots (id, dataset_id, fetched_at, row_count, payload) VALUES ($1, $2, $3, $4, $5)`,
		snap.ID, snap.DatasetID, snap.FetchedAt, snap.RowCount, snap.Payload,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert snapshot")
	}
	return nil
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context, datasetID string) (*Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, dataset_id, fetched_at, row_count, payload FROM snapshots
		 WHERE dataset_id = $1 ORDER BY fetched_at DESC LIMIT 1`,
		datasetID,
	)

	var snap Snapshot
	err := row.Scan(&snap.ID, &snap.DatasetID, &snap.FetchedAt, &snap.RowCount, &snap.Payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan snapshot")
	}
	return &snap, nil
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, datasetID string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, dataset_id, fetched_at, row_count FROM snapshots
		 WHERE dataset_id = $1 ORDER BY fetched_at DESC LIMIT $2`,
		datasetID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.DatasetID, &snap.FetchedAt, &snap.RowCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot row")
		}
		snaps = append(snaps, snap)
	}
	return snaps, eris.Wrap(rows.Err(), "postgres: iterate snapshots")
}
