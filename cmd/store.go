package main

import (
	"bytes"
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sentinel/internal/predict"
	"github.com/sells-group/sentinel/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "sentinel.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{MaxConns: cfg.Store.MaxConns})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens and migrates the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func newPredictor() *predict.Predictor {
	return predict.New(cfg.Scoring.Weights, predict.OptionsFromConfig(cfg.Model))
}

// loadPredictor restores a trained predictor from the store artifact named
// by model.name, or from a file when fromStore is false.
func loadPredictor(ctx context.Context, fromStore bool, path string) (*predict.Predictor, error) {
	p := newPredictor()
	if !fromStore {
		if err := p.Load(path); err != nil {
			return nil, err
		}
		return p, nil
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	data, err := st.LoadArtifact(ctx, cfg.Model.Name)
	if err != nil {
		return nil, eris.Wrap(err, "load model from store")
	}
	if _, err := p.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return p, nil
}
