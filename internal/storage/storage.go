package storage

import "liquidityEngine/internal/model"

// LogSink accepts ABI-encoded log records.
type LogSink interface {
	PutLogBatch(logs []model.LogRecord) error
}

// RecordSink accepts the records of one committed operation.
type RecordSink interface {
	PutRecordBatch(records []model.Record) error
}

// MultiSink fans a batch out to every sink in order, stopping at the first error.
type MultiSink []RecordSink

func (m MultiSink) PutRecordBatch(records []model.Record) error {
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.PutRecordBatch(records); err != nil {
			return err
		}
	}
	return nil
}
