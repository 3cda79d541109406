// Package store persists raw fetch snapshots so the pipeline can keep
// serving data when the portal is unreachable.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNoSnapshot is returned when no snapshot exists for a dataset.
var ErrNoSnapshot = eris.New("store: no snapshot")

// Snapshot is one persisted raw fetch: the dataset it came from, when it was
// taken, and the untouched record payload as a JSON array.
type Snapshot struct {
	ID        string    `json:"id"`
	DatasetID string    `json:"dataset_id"`
	FetchedAt time.Time `json:"fetched_at"`
	RowCount  int       `json:"row_count"`
	Payload   []byte    `json:"-"`
}

// Store defines the snapshot persistence interface.
type Store interface {
	// SaveSnapshot persists a snapshot, assigning its ID when empty.
	SaveSnapshot(ctx context.Context, snap *Snapshot) error

	// LatestSnapshot returns the most recent snapshot for the dataset,
	// payload included. ErrNoSnapshot when none exists.
	LatestSnapshot(ctx context.Context, datasetID string) (*Snapshot, error)

	// ListSnapshots returns snapshot metadata (no payload), newest first.
	ListSnapshots(ctx context.Context, datasetID string, limit int) ([]Snapshot, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
