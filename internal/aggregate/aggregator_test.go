package aggregate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"liquidityEngine/internal/model"
	"liquidityEngine/internal/storage"
	"liquidityEngine/internal/storage/postgres"
)

var (
	_ MetricsWriter = (*storage.JsonlStorage)(nil)
	_ MetricsWriter = (*postgres.Store)(nil)
)

const (
	poolA = "0x1111111111111111111111111111111111111111"
	poolB = "0x2222222222222222222222222222222222222222"
)

type captureWriter struct {
	calls   int
	metrics []model.PoolWindowMetrics
}

func (c *captureWriter) UpsertWindowMetrics(_ context.Context, metrics []model.PoolWindowMetrics) error {
	c.calls++
	c.metrics = append(c.metrics, metrics...)
	return nil
}

func writeRecords(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.jsonl")
	sink := storage.NewJsonlStorage(path)

	records := []model.Record{
		{TxID: 1, Timestamp: 1000, Pool: poolA, Kind: model.KindPoolInitialized, Data: model.LiquidityData{
			NativeAmount: "1000000", AssetAmount: "2000000", Shares: "1000",
		}},
		{TxID: 2, Timestamp: 1100, Pool: poolA, Kind: model.KindNativeToAssetSwap, Data: model.NativeToAssetData{
			NativeIn: "1000000", AssetOut: "998000", Fee: "2000",
		}},
		{TxID: 3, Timestamp: 1150, Pool: poolA, Kind: model.KindAssetToNativeSwap, Data: model.AssetToNativeData{
			AssetIn: "10000", NativeOut: "4965", Fee: "20",
		}},
		{TxID: 4, Timestamp: 1300, Pool: poolB, Kind: model.KindNativeToAssetSwap, Data: model.NativeToAssetData{
			NativeIn: "47", AssetOut: "40", Fee: "0",
		}},
		{TxID: 4, LogIndex: 1, Timestamp: 1300, Pool: poolA, Kind: model.KindAssetToAssetSwap, Data: model.AssetToAssetData{
			AssetIn: "100", NativeOut: "47", AssetOut: "40",
		}},
		{TxID: 5, Timestamp: 1310, Pool: poolA, Kind: model.KindDivest, Data: model.LiquidityData{
			NativeAmount: "10", AssetAmount: "20", Shares: "1",
		}},
	}
	if err := sink.PutRecordBatch(records); err != nil {
		t.Fatalf("write records: %v", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open records: %v", err)
	}
	if _, err := file.WriteString("not json\n"); err != nil {
		t.Fatalf("append bad line: %v", err)
	}
	file.Close()
	return path
}

func TestAggregatorWindows(t *testing.T) {
	input := writeRecords(t)
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json"), WindowSeconds: 300}
	writer := &captureWriter{}

	agg := NewAggregator(Config{WindowSeconds: 300, StateStore: state}, writer, nil)
	summary, err := agg.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Total != 7 || summary.Applied != 6 || summary.Failed != 1 || summary.Windows != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(writer.metrics) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(writer.metrics))
	}

	first := writer.metrics[0]
	if first.PoolAddress != poolA || first.WindowStart.Unix() != 900 || first.WindowEnd.Unix() != 1200 {
		t.Fatalf("unexpected first window: %+v", first)
	}
	if first.SwapCount != 2 || first.InvestCount != 1 || first.DivestCount != 0 {
		t.Fatalf("unexpected counts: %+v", first)
	}
	if first.NativeVolume != "1004965" || first.AssetVolume != "1008000" {
		t.Fatalf("unexpected volume: %s %s", first.NativeVolume, first.AssetVolume)
	}
	if first.NativeFees != "2000" || first.AssetFees != "20" {
		t.Fatalf("unexpected fees: %s %s", first.NativeFees, first.AssetFees)
	}

	second := writer.metrics[1]
	if second.PoolAddress != poolA || second.WindowStart.Unix() != 1200 {
		t.Fatalf("unexpected second window: %+v", second)
	}
	if second.SwapCount != 1 || second.DivestCount != 1 || second.AssetFees != "0" || second.NativeVolume != "47" {
		t.Fatalf("unexpected composed window: %+v", second)
	}

	third := writer.metrics[2]
	if third.PoolAddress != poolB || third.AssetVolume != "40" || third.WindowSizeSecs != 300 {
		t.Fatalf("unexpected target window: %+v", third)
	}

	last, ok, err := state.Load(context.Background())
	if err != nil || !ok || last != 1310 {
		t.Fatalf("unexpected state: %d %v %v", last, ok, err)
	}

	again := &captureWriter{}
	summary, err = NewAggregator(Config{WindowSeconds: 300, StateStore: state}, again, nil).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if summary.Skipped != 6 || again.calls != 0 {
		t.Fatalf("rerun should skip processed records: %+v calls=%d", summary, again.calls)
	}
}

func TestAggregatorRecomputeFrom(t *testing.T) {
	input := writeRecords(t)
	writer := &captureWriter{}

	summary, err := NewAggregator(Config{WindowSeconds: 300, RecomputeFrom: 1200}, writer, nil).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Skipped != 3 || summary.Applied != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(writer.metrics) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(writer.metrics))
	}
}

func TestAggregatorRequiresWriterAndWindow(t *testing.T) {
	if _, err := NewAggregator(Config{WindowSeconds: 60}, nil, nil).Run(context.Background(), "x"); err == nil {
		t.Fatalf("expected nil writer error")
	}
	if _, err := NewAggregator(Config{}, &captureWriter{}, nil).Run(context.Background(), "x"); err == nil {
		t.Fatalf("expected window error")
	}
}

func TestFileStateStoreKeepsWindowsApart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()
	five := &FileStateStore{Path: path, WindowSeconds: 300}
	hour := &FileStateStore{Path: path, WindowSeconds: 3600}

	if _, ok, err := five.Load(ctx); err != nil || ok {
		t.Fatalf("expected empty state, got ok=%v err=%v", ok, err)
	}
	if err := five.Save(ctx, 42); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := hour.Save(ctx, 7); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, ok, _ := five.Load(ctx); !ok || got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got, ok, _ := hour.Load(ctx); !ok || got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}
