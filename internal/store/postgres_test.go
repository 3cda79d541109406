package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_SaveSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO snapshots`).
		WithArgs(pgxmock.AnyArg(), "ryr5-rs2a", pgxmock.AnyArg(), 1, []byte(`[{"municipio":"TUNJA"}]`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveSnapshot(context.Background(), &Snapshot{
		DatasetID: "ryr5-rs2a",
		RowCount:  1,
		Payload:   []byte(`[{"municipio":"TUNJA"}]`),
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, dataset_id, fetched_at, row_count, payload FROM snapshots`).
		WithArgs("ryr5-rs2a").
		WillReturnRows(pgxmock.NewRows([]string{"id", "dataset_id", "fetched_at", "row_count", "payload"}).
			AddRow("snap-1", "ryr5-rs2a", now, 3, []byte(`[]`)))

	got, err := s.LatestSnapshot(context.Background(), "ryr5-rs2a")
	require.NoError(t, err)
	assert.Equal(t, "snap-1", got.ID)
	assert.Equal(t, 3, got.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestSnapshot_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, dataset_id, fetched_at, row_count, payload FROM snapshots`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.LatestSnapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSnapshots(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, dataset_id, fetched_at, row_count FROM snapshots`).
		WithArgs("ryr5-rs2a", 20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "dataset_id", "fetched_at", "row_count"}).
			AddRow("snap-2", "ryr5-rs2a", now, 5).
			AddRow("snap-1", "ryr5-rs2a", now.Add(-time.Hour), 4))

	snaps, err := s.ListSnapshots(context.Background(), "ryr5-rs2a", 0)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "snap-2", snaps[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS snapshots`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
