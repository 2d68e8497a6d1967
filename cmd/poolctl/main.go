package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "poolctl",
		Short:        "Constant-product liquidity pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a scenario file against the pool engine",
		RunE:  runScenario,
	}

	runCmd.Flags().String("scenario", "", "scenario YAML path")
	runCmd.Flags().String("out", "./data/records.jsonl", "output records JSONL path")
	runCmd.Flags().String("logs-out", "./data/logs.jsonl", "output ABI-encoded logs JSONL path, empty disables")
	runCmd.Flags().String("snapshot", "./data/snapshot.json", "engine snapshot file written after the run")
	runCmd.Flags().Bool("restore", false, "start from the saved snapshot instead of the scenario setup")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for records, pools and snapshots")
	runCmd.Flags().String("state-name", "engine", "engine_state row holding the snapshot")
	runCmd.Flags().Bool("stop-on-mismatch", false, "stop at the first step with an unexpected outcome")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts for Postgres writes")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap without executing it",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("direction", "native-to-asset", "native-to-asset, asset-to-native or asset-to-asset")
	quoteCmd.Flags().String("amount", "", "input amount")
	quoteCmd.Flags().String("snapshot", "", "read reserves from an engine snapshot")
	quoteCmd.Flags().String("asset", "", "asset address of the quoted pool (with --snapshot)")
	quoteCmd.Flags().String("target", "", "target asset address for asset-to-asset (with --snapshot)")
	quoteCmd.Flags().String("native-reserve", "", "native reserve of the quoted pool")
	quoteCmd.Flags().String("asset-reserve", "", "asset reserve of the quoted pool")
	quoteCmd.Flags().String("target-native-reserve", "", "native reserve of the target pool")
	quoteCmd.Flags().String("target-asset-reserve", "", "asset reserve of the target pool")
	quoteCmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode ABI-encoded logs back into records",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input logs JSONL")
	decodeCmd.Flags().String("out", "./data/decoded_records.jsonl", "output records JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("snapshot", "", "engine snapshot used to map pools to assets")
	decodeCmd.Flags().StringSlice("pool", nil, "extra pool=asset mappings (comma-separated)")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate records into pool window metrics",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("in", "", "input records JSONL")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN, metrics go to --out when empty")
	aggregateCmd.Flags().String("out", "./data/window_metrics.jsonl", "output metrics JSONL without Postgres")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for metric writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	aggregateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(aggregateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
