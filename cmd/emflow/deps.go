package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/avi3tal/emflow/internal/config"
	"github.com/avi3tal/emflow/internal/store"
	"github.com/avi3tal/emflow/internal/timesheet"
	"github.com/avi3tal/emflow/pkg/checkpoints"
	"github.com/avi3tal/emflow/pkg/types"
)

// dataStore is a timesheet repository that can also be migrated.
type dataStore interface {
	store.Repository
	store.Migrator
}

func openStore(ctx context.Context, cfg config.DBConfig) (dataStore, error) {
	switch cfg.Driver {
	case "postgres":
		return store.ConnectPostgres(ctx, cfg.URL)
	case "sqlite":
		return store.OpenSQLite(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// openCheckpoints returns the checkpoint store for cfg and a cleanup function.
func openCheckpoints(ctx context.Context, cfg config.CheckpointConfig, repo dataStore) (types.CheckpointStore[timesheet.WorkflowState], func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case "memory":
		return checkpoints.NewMemoryStore[timesheet.WorkflowState](), noop, nil

	case "postgres":
		pg, ok := repo.(*store.PostgresStore)
		if !ok {
			return nil, nil, fmt.Errorf("postgres checkpoints require the postgres database driver")
		}
		cps := checkpoints.NewPostgresStore[timesheet.WorkflowState](pg.Pool())
		if err := cps.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return cps, noop, nil

	case "nats":
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("emflow"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("failed to create jetstream context: %w", err)
		}
		kv, err := checkpoints.NewKVStore[timesheet.WorkflowState](ctx, js, cfg.Bucket, cfg.TTL)
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		slog.Info("using nats checkpoint bucket", "bucket", cfg.Bucket, "ttl", cfg.TTL)
		return kv, func() { _ = nc.Drain() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}
