package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"

	"liquidityEngine/internal/model"
	"liquidityEngine/internal/storage"
)

// DecodeSummary counts the outcome of a DecodeStream call.
type DecodeSummary struct {
	Total   int
	Decoded int
	Skipped int
	Failed  int
}

// DecodeStream decodes every log line of r. Lines with a foreign topic0 are
// skipped; malformed lines are reported to onError and decoding continues.
func DecodeStream(ctx context.Context, codec *Codec, r io.Reader, onRecord func(model.Record) error, onError func(model.DecodeError) error) (DecodeSummary, error) {
	var summary DecodeSummary
	if codec == nil {
		return summary, fmt.Errorf("codec is nil")
	}

	err := storage.ScanJSONL(r, func(line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary.Total++

		var log model.LogRecord
		if err := json.Unmarshal(line, &log); err != nil {
			summary.Failed++
			return onError(model.DecodeError{Error: err.Error()})
		}
		if len(log.Topics) == 0 {
			summary.Failed++
			return onError(decodeError(log, fmt.Errorf("missing topic0")))
		}
		if !codec.CanDecode(log.Topics[0]) {
			summary.Skipped++
			return nil
		}

		rec, err := codec.Decode(log)
		if err != nil {
			summary.Failed++
			return onError(decodeError(log, err))
		}
		if err := onRecord(rec); err != nil {
			return err
		}
		summary.Decoded++
		return nil
	})
	return summary, err
}

func decodeError(log model.LogRecord, err error) model.DecodeError {
	out := model.DecodeError{
		TxID:        log.TxID,
		BlockNumber: log.BlockNumber,
		LogIndex:    log.LogIndex,
		Address:     log.Address,
		Error:       err.Error(),
	}
	if len(log.Topics) > 0 {
		out.Topic0 = log.Topics[0]
	}
	return out
}

// PoolAssets maps every pool of snap to the asset it trades.
func PoolAssets(snap model.EngineSnapshot) map[common.Address]common.Address {
	out := make(map[common.Address]common.Address, len(snap.Pools))
	for _, p := range snap.Pools {
		out[common.HexToAddress(p.Address)] = common.HexToAddress(p.Asset)
	}
	return out
}
