package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityEngine/internal/config"
	"liquidityEngine/internal/engine"
	"liquidityEngine/internal/events"
	"liquidityEngine/internal/model"
	"liquidityEngine/internal/scenario"
	"liquidityEngine/internal/storage"
	"liquidityEngine/internal/storage/postgres"
)

func runScenario(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRun(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Scenario == "" {
		return fmt.Errorf("scenario path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	file, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	sinks := storage.MultiSink{storage.NewJsonlStorage(cfg.Out)}

	if cfg.LogsOut != "" {
		codec, err := events.NewCodec(events.CodecConfig{})
		if err != nil {
			return err
		}
		sinks = append(sinks, events.NewLogSink(codec, storage.NewJsonlStorage(cfg.LogsOut)))
	}

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		sinks = append(sinks, postgres.NewRecordSink(ctx, store, storage.Retry{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBackoff,
			Logger:     logger,
		}))
	}

	snapshots := &storage.FileSnapshotStore{Path: cfg.Snapshot}
	var snap model.EngineSnapshot
	restored := false
	if cfg.Restore {
		snap, restored, err = loadSnapshot(ctx, snapshots, store, cfg.StateName)
		if err != nil {
			return err
		}
		if !restored {
			logger.Warn("no snapshot to restore, running scenario setup")
		}
	}

	eng, err := engine.New(engine.Config{
		RegistryAddress: file.RegistryAddress(),
		NativeSymbol:    file.NativeSymbol,
		Sink:            sinks,
	}, logger)
	if err != nil {
		return err
	}
	if restored {
		if err := eng.Restore(snap); err != nil {
			return fmt.Errorf("restore engine: %w", err)
		}
	}

	logger.Info("run start",
		zap.String("scenario", cfg.Scenario),
		zap.Int("steps", len(file.Steps)),
		zap.String("out", cfg.Out),
		zap.String("logs_out", cfg.LogsOut),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Bool("restored", restored),
	)

	report, err := scenario.NewRunner(scenario.RunConfig{
		Setup:          !restored,
		StopOnMismatch: cfg.StopOnMismatch,
	}, eng, logger).Run(ctx, file)
	if err != nil {
		return err
	}

	if err := eng.CheckInvariants(); err != nil {
		return fmt.Errorf("check invariants: %w", err)
	}

	final := eng.Snapshot()
	if err := snapshots.Save(final); err != nil {
		return err
	}
	if store != nil {
		if err := store.UpsertPools(ctx, final.Pools); err != nil {
			return fmt.Errorf("upsert pools: %w", err)
		}
		if err := store.SaveSnapshot(ctx, cfg.StateName, final); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if report.Mismatches > 0 {
		return fmt.Errorf("%d step(s) did not match their expectation", report.Mismatches)
	}
	return nil
}

// loadSnapshot prefers the snapshot file and falls back to Postgres.
func loadSnapshot(ctx context.Context, files *storage.FileSnapshotStore, store *postgres.Store, name string) (model.EngineSnapshot, bool, error) {
	snap, ok, err := files.Load()
	if err != nil || ok {
		return snap, ok, err
	}
	if store == nil {
		return model.EngineSnapshot{}, false, nil
	}
	return store.LoadSnapshot(ctx, name)
}
