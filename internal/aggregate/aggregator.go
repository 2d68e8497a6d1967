package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"liquidityEngine/internal/model"
	"liquidityEngine/internal/storage"
)

// MetricsWriter persists window metrics. *postgres.Store and
// *storage.JsonlStorage both satisfy it.
type MetricsWriter interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
}

// Summary reports what a Run consumed and produced.
type Summary struct {
	Total   int
	Applied int
	Skipped int
	Failed  int
	Windows int
}

// Aggregator aggregates operation records into pool window metrics.
type Aggregator struct {
	cfg          Config
	writer       MetricsWriter
	logger       *zap.Logger
	accumulators map[string]*Accumulator
}

func NewAggregator(cfg Config, writer MetricsWriter, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		writer:       writer,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
	}
}

// Run executes aggregation over a records JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) (Summary, error) {
	var summary Summary
	if a.writer == nil {
		return summary, fmt.Errorf("metrics writer is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return summary, fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return summary, err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return summary, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	maxTs := startTs

	err = storage.ScanJSONL(file, func(line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary.Total++

		var record model.RawRecord
		if err := json.Unmarshal(line, &record); err != nil {
			summary.Failed++
			a.logger.Warn("decode record", zap.Error(err))
			return nil
		}
		if record.Timestamp <= startTs {
			summary.Skipped++
			return nil
		}

		start := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		key := poolKey(record.Pool)
		acc := a.accumulators[key]
		if acc != nil && acc.WindowStart != start {
			batch = append(batch, acc.Metrics(a.cfg.WindowSeconds))
			acc = nil
		}
		if acc == nil {
			acc = NewAccumulator(record, start, start+a.cfg.WindowSeconds)
			a.accumulators[key] = acc
		}

		if err := acc.AddRecord(record); err != nil {
			summary.Failed++
			a.logger.Warn("aggregate record",
				zap.Error(err),
				zap.String("pool", record.Pool),
				zap.String("kind", string(record.Kind)),
				zap.Uint64("tx", record.TxID),
			)
			return nil
		}
		summary.Applied++

		if record.Timestamp > maxTs {
			maxTs = record.Timestamp
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.flush(ctx, batch); err != nil {
				return err
			}
			summary.Windows += len(batch)
			batch = batch[:0]
			if err := a.saveState(ctx, maxTs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	for _, key := range sortedKeys(a.accumulators) {
		batch = append(batch, a.accumulators[key].Metrics(a.cfg.WindowSeconds))
	}
	a.accumulators = make(map[string]*Accumulator)

	if err := a.flush(ctx, batch); err != nil {
		return summary, err
	}
	summary.Windows += len(batch)

	a.cfg.RecomputeFrom = 0
	if err := a.saveState(ctx, maxTs); err != nil {
		return summary, err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", summary.Total),
		zap.Int("applied", summary.Applied),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("windows", summary.Windows),
	)

	return summary, nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

// saveState records progress up to the last timestamp that no open window
// can still receive records for.
func (a *Aggregator) saveState(ctx context.Context, maxTs uint64) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	if len(a.accumulators) == 0 {
		return a.cfg.StateStore.Save(ctx, maxTs)
	}

	safeTs := minOpenWindowStart(a.accumulators)
	if safeTs > 0 {
		safeTs--
	}
	return a.cfg.StateStore.Save(ctx, safeTs)
}

func (a *Aggregator) flush(ctx context.Context, batch []model.PoolWindowMetrics) error {
	if len(batch) == 0 {
		return nil
	}
	if err := a.writer.UpsertWindowMetrics(ctx, batch); err != nil {
		return fmt.Errorf("write window metrics: %w", err)
	}
	return nil
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func poolKey(address string) string {
	return strings.ToLower(address)
}

func unixUTC(ts uint64) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

func sortedKeys(acc map[string]*Accumulator) []string {
	keys := make([]string, 0, len(acc))
	for key := range acc {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func minOpenWindowStart(acc map[string]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.WindowStart < min {
			min = entry.WindowStart
		}
	}
	return min
}
