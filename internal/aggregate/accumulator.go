package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"

	"liquidityEngine/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolAddress  string
	Asset        string
	WindowStart  uint64
	WindowEnd    uint64
	SwapCount    uint64
	InvestCount  uint64
	DivestCount  uint64
	NativeVolume *big.Int
	AssetVolume  *big.Int
	NativeFees   *big.Int
	AssetFees    *big.Int
	FirstTx      uint64
	LastTx       uint64
	LastTS       uint64
}

func NewAccumulator(record model.RawRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress:  record.Pool,
		Asset:        record.Asset,
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
		NativeVolume: big.NewInt(0),
		AssetVolume:  big.NewInt(0),
		NativeFees:   big.NewInt(0),
		AssetFees:    big.NewInt(0),
		FirstTx:      record.TxID,
		LastTx:       record.TxID,
		LastTS:       record.Timestamp,
	}
}

// AddRecord folds one record of the accumulator's pool into the window.
func (a *Accumulator) AddRecord(record model.RawRecord) error {
	if record.Timestamp >= a.LastTS {
		a.LastTS = record.Timestamp
	}
	if record.TxID > a.LastTx {
		a.LastTx = record.TxID
	}
	if a.FirstTx == 0 || record.TxID < a.FirstTx {
		a.FirstTx = record.TxID
	}

	switch record.Kind {
	case model.KindPoolInitialized, model.KindInvest:
		a.InvestCount++
		return nil
	case model.KindDivest:
		a.DivestCount++
		return nil
	case model.KindNativeToAssetSwap:
		var swap model.NativeToAssetData
		if err := json.Unmarshal(record.Data, &swap); err != nil {
			return fmt.Errorf("decode native to asset swap: %w", err)
		}
		return a.applySwap(swap.NativeIn, swap.AssetOut, swap.Fee, a.NativeFees)
	case model.KindAssetToNativeSwap:
		var swap model.AssetToNativeData
		if err := json.Unmarshal(record.Data, &swap); err != nil {
			return fmt.Errorf("decode asset to native swap: %w", err)
		}
		return a.applySwap(swap.NativeOut, swap.AssetIn, swap.Fee, a.AssetFees)
	case model.KindAssetToAssetSwap:
		// The first leg is fee-free; the target pool books its own leg.
		var swap model.AssetToAssetData
		if err := json.Unmarshal(record.Data, &swap); err != nil {
			return fmt.Errorf("decode asset to asset swap: %w", err)
		}
		return a.applySwap(swap.NativeOut, swap.AssetIn, "0", a.AssetFees)
	default:
		return fmt.Errorf("unsupported record kind %q", record.Kind)
	}
}

func (a *Accumulator) applySwap(nativeAmount, assetAmount, fee string, feeTarget *big.Int) error {
	native, err := parseBigInt(nativeAmount)
	if err != nil {
		return err
	}
	asset, err := parseBigInt(assetAmount)
	if err != nil {
		return err
	}
	feeAmount, err := parseBigInt(fee)
	if err != nil {
		return err
	}

	a.NativeVolume.Add(a.NativeVolume, native)
	a.AssetVolume.Add(a.AssetVolume, asset)
	feeTarget.Add(feeTarget, feeAmount)
	a.SwapCount++
	return nil
}

// Metrics converts the accumulator into a window metrics row.
func (a *Accumulator) Metrics(windowSeconds uint64) model.PoolWindowMetrics {
	return model.PoolWindowMetrics{
		PoolAddress:    a.PoolAddress,
		Asset:          a.Asset,
		WindowSizeSecs: int64(windowSeconds),
		WindowStart:    unixUTC(a.WindowStart),
		WindowEnd:      unixUTC(a.WindowEnd),
		SwapCount:      a.SwapCount,
		InvestCount:    a.InvestCount,
		DivestCount:    a.DivestCount,
		NativeVolume:   a.NativeVolume.String(),
		AssetVolume:    a.AssetVolume.String(),
		NativeFees:     a.NativeFees.String(),
		AssetFees:      a.AssetFees.String(),
	}
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	return parsed, nil
}
