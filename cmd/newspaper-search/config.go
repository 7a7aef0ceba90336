// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/newspaper-search/internal/engine"
	"github.com/pdiddy/newspaper-search/internal/history"
	"github.com/pdiddy/newspaper-search/internal/ingest"
	"github.com/pdiddy/newspaper-search/internal/pgstore"
	"github.com/pdiddy/newspaper-search/internal/query"
	"github.com/pdiddy/newspaper-search/internal/secrets"
	"github.com/pdiddy/newspaper-search/internal/store"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

func setDefaults() {
	viper.SetDefault("store.driver", string(types.DriverSQLite))
	viper.SetDefault("store.path", store.DefaultPath)
	viper.SetDefault("search.chunk_size", engine.DefaultChunkSize)
	viper.SetDefault("history.capacity", history.DefaultCapacity)
	viper.SetDefault("ingest.batch_size", 1000)
	viper.SetDefault("ingest.base_url", ingest.DefaultBaseURL)
	viper.SetDefault("serve.addr", ":8080")
	viper.SetDefault("serve.read_timeout", 10*time.Second)
	viper.SetDefault("serve.log_level", "info")
}

// pipelineConfig reads every component setting from viper.
func pipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Store: types.StoreConfig{
			Driver: types.StoreDriver(viper.GetString("store.driver")),
			Path:   viper.GetString("store.path"),
			DSN:    loadedSecrets.Value(secrets.PostgresDSN, viper.GetString("store.dsn")),
		},
		Search:  types.SearchConfig{ChunkSize: viper.GetInt("search.chunk_size")},
		History: types.HistoryConfig{Capacity: viper.GetInt("history.capacity")},
		Ingest: types.IngestConfig{
			Root:      viper.GetString("ingest.root"),
			BatchSize: viper.GetInt("ingest.batch_size"),
			BaseURL:   viper.GetString("ingest.base_url"),
		},
		Serve: types.ServeConfig{
			Addr:        viper.GetString("serve.addr"),
			ReadTimeout: viper.GetDuration("serve.read_timeout"),
			LogLevel:    viper.GetString("serve.log_level"),
		},
	}
}

// backend is what the CLI needs from a record store.
type backend interface {
	query.RecordStore
	history.Backend
	ingest.Sink
	io.Closer
	Describe() string
}

func openBackend(ctx context.Context, cfg types.StoreConfig) (backend, error) {
	switch cfg.Driver {
	case types.DriverSQLite, "":
		s, err := store.Open(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case types.DriverPostgres:
		s, err := pgstore.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q: use sqlite or postgres", cfg.Driver)
	}
}

// openEngine opens the configured store and wires the engine with its
// history cache. The caller closes the returned backend.
func openEngine(ctx context.Context) (*engine.Engine, backend, error) {
	cfg := pipelineConfig()
	b, err := openBackend(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	hist, err := history.New(ctx, b, cfg.History.Capacity)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	eng, err := engine.New(ctx, b, hist, cfg.Search)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return eng, b, nil
}
