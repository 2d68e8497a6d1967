package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityEngine/internal/model"
)

//go:embed schema.sql
var schema string

// Store provides Postgres persistence for records, pool state and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// InsertRecords stores operation records; replays of the same record are ignored.
func (s *Store) InsertRecords(ctx context.Context, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		data, err := json.Marshal(rec.Data)
		if err != nil {
			return fmt.Errorf("marshal record data: %w", err)
		}
		batch.Queue(`
			INSERT INTO pool_records (
				tx_id, log_index, block_number, ts, pool_address, asset, kind, data
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (tx_id, log_index) DO NOTHING
		`,
			int64(rec.TxID),
			int64(rec.LogIndex),
			int64(rec.BlockNumber),
			int64(rec.Timestamp),
			rec.Pool,
			rec.Asset,
			string(rec.Kind),
			data,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertPools inserts or updates pool reserves and shares.
func (s *Store) UpsertPools(ctx context.Context, pools []model.PoolSnapshot) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		shares, err := json.Marshal(p.Shares)
		if err != nil {
			return fmt.Errorf("marshal shares: %w", err)
		}
		batch.Queue(`
			INSERT INTO pools (
				pool_address, asset, native_reserve, asset_reserve, total_shares, shares, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				native_reserve = EXCLUDED.native_reserve,
				asset_reserve = EXCLUDED.asset_reserve,
				total_shares = EXCLUDED.total_shares,
				shares = EXCLUDED.shares,
				updated_at = now()
		`,
			p.Address,
			p.Asset,
			numeric(p.NativeReserve),
			numeric(p.AssetReserve),
			numeric(p.TotalShares),
			shares,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_address, asset, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, invest_count, divest_count,
				native_volume, asset_volume, native_fees, asset_fees, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
			ON CONFLICT (pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				invest_count = EXCLUDED.invest_count,
				divest_count = EXCLUDED.divest_count,
				native_volume = EXCLUDED.native_volume,
				asset_volume = EXCLUDED.asset_volume,
				native_fees = EXCLUDED.native_fees,
				asset_fees = EXCLUDED.asset_fees,
				updated_at = now()
		`,
			m.PoolAddress,
			m.Asset,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.InvestCount),
			int64(m.DivestCount),
			numeric(m.NativeVolume),
			numeric(m.AssetVolume),
			numeric(m.NativeFees),
			numeric(m.AssetFees),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_processed_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM engine_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_processed_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO engine_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, int64(ts))
	return err
}

// SaveSnapshot stores the full engine snapshot under name.
func (s *Store) SaveSnapshot(ctx context.Context, name string, snap model.EngineSnapshot) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO engine_state (name, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, updated_at = now()
	`, name, data)
	return err
}

func (s *Store) LoadSnapshot(ctx context.Context, name string) (model.EngineSnapshot, bool, error) {
	if name == "" {
		return model.EngineSnapshot{}, false, fmt.Errorf("state name required")
	}
	var data []byte
	row := s.pool.QueryRow(ctx, `SELECT snapshot FROM engine_state WHERE name=$1 AND snapshot IS NOT NULL`, name)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.EngineSnapshot{}, false, nil
		}
		return model.EngineSnapshot{}, false, err
	}
	var snap model.EngineSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.EngineSnapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, true, nil
}

// numeric passes decimal strings to NUMERIC columns, treating "" as zero.
func numeric(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
