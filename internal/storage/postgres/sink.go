package postgres

import (
	"context"

	"liquidityEngine/internal/model"
	"liquidityEngine/internal/storage"
)

// RecordSink writes committed records to the store with retries.
type RecordSink struct {
	ctx   context.Context
	store *Store
	retry storage.Retry
}

func NewRecordSink(ctx context.Context, store *Store, retry storage.Retry) *RecordSink {
	return &RecordSink{ctx: ctx, store: store, retry: retry}
}

func (s *RecordSink) PutRecordBatch(records []model.Record) error {
	return s.retry.Do(s.ctx, "insert records", func(ctx context.Context) error {
		return s.store.InsertRecords(ctx, records)
	})
}
