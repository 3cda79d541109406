package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fenix-boyaca/fenix-cli/internal/fetcher"
	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/socrata"
	"github.com/fenix-boyaca/fenix-cli/internal/store"
)

// openStore opens the configured snapshot backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.Path)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q (want sqlite or postgres)", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// optionalStore opens the snapshot store but degrades to nil when it is
// unavailable; read-side commands still work without a fallback.
func optionalStore(ctx context.Context) store.Store {
	st, err := openStore(ctx)
	if err != nil {
		zap.L().Warn("snapshot store unavailable", zap.Error(err))
		return nil
	}
	return st
}

// newSource wires the fetcher, portal client, and snapshot fallback.
func newSource(st store.Store) *socrata.Source {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:      time.Duration(cfg.Socrata.TimeoutSecs) * time.Second,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})
	client := socrata.NewClient(f, socrata.Options{
		BaseURL:   cfg.Socrata.BaseURL,
		DatasetID: cfg.Socrata.DatasetID,
		Limit:     cfg.Socrata.Limit,
		AppToken:  cfg.Socrata.AppToken,
	})
	return socrata.NewSource(client, schema.MustLoad(), st)
}
