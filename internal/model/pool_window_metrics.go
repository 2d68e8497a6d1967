package model

import "time"

// PoolWindowMetrics stores aggregated activity for a pool window.
type PoolWindowMetrics struct {
	PoolAddress    string
	Asset          string
	WindowSizeSecs int64
	WindowStart    time.Time
	WindowEnd      time.Time
	SwapCount      uint64
	InvestCount    uint64
	DivestCount    uint64
	NativeVolume   string
	AssetVolume    string
	NativeFees     string
	AssetFees      string
}
