package events

import (
	"liquidityEngine/internal/model"
	"liquidityEngine/internal/storage"
)

// LogSink encodes committed records and forwards them as logs.
type LogSink struct {
	codec *Codec
	out   storage.LogSink
}

func NewLogSink(codec *Codec, out storage.LogSink) *LogSink {
	return &LogSink{codec: codec, out: out}
}

func (s *LogSink) PutRecordBatch(records []model.Record) error {
	logs := make([]model.LogRecord, 0, len(records))
	for _, rec := range records {
		log, err := s.codec.Encode(rec)
		if err != nil {
			return err
		}
		logs = append(logs, log)
	}
	return s.out.PutLogBatch(logs)
}
