package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/stormlightlabs/memoria/internal/config"
	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/embedding"
	"github.com/stormlightlabs/memoria/internal/index"
	"github.com/stormlightlabs/memoria/internal/memory"
	"github.com/stormlightlabs/memoria/internal/search"
)

// app is the set of services every command works through.
type app struct {
	store     *db.Store
	embedding *embedding.Service
	memory    *memory.Service
	search    *search.Service
	mode      search.Mode
}

// openApp opens the configured database, creating the schema if needed, and
// wires the embedding pipeline, sync protocol, memory and search services.
func openApp(ctx context.Context) (*app, error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	return newApp(ctx, path, cfg)
}

func newApp(ctx context.Context, path string, c *config.Config) (*app, error) {
	if c == nil {
		c = config.DefaultConfig()
	}
	if err := db.EnsureDir(path); err != nil {
		return nil, err
	}
	store, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	embedder, err := embedding.New(c.Embedding)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	embedSvc := embedding.NewService(store.DB(), embedder, embedding.Options{
		Dimensions:     c.Embedding.Dimensions,
		LoadTimeout:    time.Duration(c.Embedding.LoadTimeoutSeconds) * time.Second,
		BatchSize:      c.Embedding.BatchSize,
		QueryCacheSize: c.Embedding.QueryCacheSize,
	})

	mem := memory.New(store, index.NewSyncer(embedSvc))
	searchSvc := search.New(store.DB(), mem, embedSvc, search.Options{
		DefaultLimit: c.Search.DefaultLimit,
		VectorWeight: c.Search.VectorWeight,
		TextWeight:   c.Search.TextWeight,
	})

	mode, err := search.ParseMode(c.Search.Mode)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("config search.mode: %w", err)
	}

	return &app{store: store, embedding: embedSvc, memory: mem, search: searchSvc, mode: mode}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
