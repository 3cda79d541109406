package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	dataset_id TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	row_count  INTEGER NOT NULL,
	payload    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_dataset ON snapshots(dataset_id, fetched_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, dataset_id, fetched_at, row_count, payload) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.DatasetID, snap.FetchedAt, snap.RowCount, string(snap.Payload),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert snapshot")
	}
	return nil
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, datasetID string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dataset_id, fetched_at, row_count, payload FROM snapshots
		 WHERE dataset_id = ? ORDER BY fetched_at DESC LIMIT 1`,
		datasetID,
	)

	var snap Snapshot
	var payload string
	err := row.Scan(&snap.ID, &snap.DatasetID, &snap.FetchedAt, &snap.RowCount, &payload)
	if err == sql.ErrNoRows {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan snapshot")
	}
	snap.Payload = []byte(payload)
	return &snap, nil
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, datasetID string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dataset_id, fetched_at, row_count FROM snapshots
		 WHERE dataset_id = ? ORDER BY fetched_at DESC LIMIT ?`,
		datasetID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close() //nolint:errcheck

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.DatasetID, &snap.FetchedAt, &snap.RowCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot row")
		}
		snaps = append(snaps, snap)
	}
	return snaps, eris.Wrap(rows.Err(), "sqlite: iterate snapshots")
}
