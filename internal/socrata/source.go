package socrata

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/store"
	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

// Result is what the rest of the pipeline sees: always a usable table, plus
// a user-facing warning when the portal could not be reached.
type Result struct {
	Table        *table.Table
	Warning      string
	FromSnapshot bool
}

// Source wraps the portal client with a process-lifetime memo and an
// optional snapshot fallback. Fetch failures never propagate as errors: the
// caller gets the last snapshot, or an empty table, with a warning attached.
type Source struct {
	client    *Client
	sch       *schema.Schema
	snapshots store.Store // optional

	group  singleflight.Group
	mu     sync.RWMutex
	cached *Result
}

// NewSource creates a Source. snapshots may be nil.
func NewSource(client *Client, sch *schema.Schema, snapshots store.Store) *Source {
	return &Source{client: client, sch: sch, snapshots: snapshots}
}

// Incidents returns the incident table. The first successful fetch is cached
// for the life of the process; concurrent first calls share one request.
// Callers must treat the returned table as read-only.
func (s *Source) Incidents(ctx context.Context) Result {
	s.mu.RLock()
	if s.cached != nil {
		res := *s.cached
		s.mu.RUnlock()
		return res
	}
	s.mu.RUnlock()

	v, _, _ := s.group.Do("incidents", func() (any, error) {
		return s.load(ctx), nil
	})
	return v.(Result)
}

func (s *Source) load(ctx context.Context) Result {
	records, err := s.client.FetchRecords(ctx)
	if err == nil {
		s.persistSnapshot(ctx, records)
		res := Result{Table: BuildTable(records, s.sch)}
		// Only successful fetches are memoized; a degraded result keeps
		// retrying the portal on later calls.
		s.mu.Lock()
		s.cached = &res
		s.mu.Unlock()
		return res
	}

	zap.L().Warn("portal fetch failed", zap.Error(err))

	if s.snapshots != nil {
		if res, ok := s.loadSnapshot(ctx); ok {
			return res
		}
	}

	return Result{
		Table:   table.New(),
		Warning: fmt.Sprintf("Error al conectar con la fuente de datos: %v", err),
	}
}

func (s *Source) loadSnapshot(ctx context.Context) (Result, bool) {
	snap, err := s.snapshots.LatestSnapshot(ctx, s.client.DatasetID())
	if err != nil {
		if !eris.Is(err, store.ErrNoSnapshot) {
			zap.L().Warn("snapshot lookup failed", zap.Error(err))
		}
		return Result{}, false
	}
	records, err := DecodeRecords(snap.Payload)
	if err != nil {
		zap.L().Warn("snapshot payload unreadable", zap.String("id", snap.ID), zap.Error(err))
		return Result{}, false
	}
	zap.L().Info("serving snapshot fallback",
		zap.String("id", snap.ID),
		zap.Time("fetched_at", snap.FetchedAt),
		zap.Int("rows", snap.RowCount),
	)
	return Result{
		Table:        BuildTable(records, s.sch),
		Warning:      fmt.Sprintf("Fuente de datos no disponible; usando copia local del %s", snap.FetchedAt.Format("2006-01-02 15:04")),
		FromSnapshot: true,
	}, true
}

func (s *Source) persistSnapshot(ctx context.Context, records []map[string]string) {
	if s.snapshots == nil {
		return
	}
	payload, err := EncodeRecords(records)
	if err != nil {
		zap.L().Warn("snapshot encode failed", zap.Error(err))
		return
	}
	snap := &store.Snapshot{
		DatasetID: s.client.DatasetID(),
		RowCount:  len(records),
		Payload:   payload,
	}
	if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
		zap.L().Warn("snapshot save failed", zap.Error(err))
		return
	}
	zap.L().Info("snapshot saved", zap.String("id", snap.ID), zap.Int("rows", snap.RowCount))
}
