package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityEngine/internal/config"
	"liquidityEngine/internal/events"
	"liquidityEngine/internal/model"
	"liquidityEngine/internal/storage"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	poolAssets, err := config.ParsePoolAssets(cfg.Pools)
	if err != nil {
		return err
	}
	if cfg.Snapshot != "" {
		snap, ok, err := (&storage.FileSnapshotStore{Path: cfg.Snapshot}).Load()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("snapshot %s not found", cfg.Snapshot)
		}
		for pool, asset := range events.PoolAssets(snap) {
			if _, set := poolAssets[pool]; !set {
				poolAssets[pool] = asset
			}
		}
	}

	codec, err := events.NewCodec(events.CodecConfig{PoolAssets: poolAssets})
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	outWriter, err := storage.NewJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := storage.NewJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Int("pools", len(poolAssets)),
	)

	summary, err := events.DecodeStream(ctx, codec, inputFile,
		func(rec model.Record) error { return outWriter.Write(rec) },
		func(decodeErr model.DecodeError) error { return errWriter.Write(decodeErr) },
	)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", summary.Total),
		zap.Int("decoded", summary.Decoded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return nil
}
