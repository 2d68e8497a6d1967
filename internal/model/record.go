package model

import "encoding/json"

// RecordKind names the pool operation a record was emitted for.
type RecordKind string

const (
	KindPoolInitialized   RecordKind = "PoolInitialized"
	KindInvest            RecordKind = "Invest"
	KindDivest            RecordKind = "Divest"
	KindNativeToAssetSwap RecordKind = "NativeToAssetSwap"
	KindAssetToNativeSwap RecordKind = "AssetToNativeSwap"
	KindAssetToAssetSwap  RecordKind = "AssetToAssetSwap"
)

// Record is the observable side effect of one successful pool operation.
// TxID, BlockNumber, LogIndex and Timestamp are assigned by the transaction
// that emitted it.
type Record struct {
	TxID        uint64      `json:"tx_id"`
	BlockNumber uint64      `json:"block_number"`
	LogIndex    uint64      `json:"log_index"`
	Timestamp   uint64      `json:"timestamp"`
	Pool        string      `json:"pool"`
	Asset       string      `json:"asset"`
	Kind        RecordKind  `json:"kind"`
	Data        interface{} `json:"data"`
}

// RawRecord is the JSON representation of a Record read back from storage.
type RawRecord struct {
	TxID        uint64          `json:"tx_id"`
	BlockNumber uint64          `json:"block_number"`
	LogIndex    uint64          `json:"log_index"`
	Timestamp   uint64          `json:"timestamp"`
	Pool        string          `json:"pool"`
	Asset       string          `json:"asset"`
	Kind        RecordKind      `json:"kind"`
	Data        json.RawMessage `json:"data"`
}

// LiquidityData is the payload of PoolInitialized, Invest and Divest records.
type LiquidityData struct {
	Provider     string `json:"provider"`
	NativeAmount string `json:"native_amount"`
	AssetAmount  string `json:"asset_amount"`
	Shares       string `json:"shares"`
}

// NativeToAssetData is the payload of a NativeToAssetSwap record.
type NativeToAssetData struct {
	Buyer     string `json:"buyer"`
	Recipient string `json:"recipient"`
	NativeIn  string `json:"native_in"`
	AssetOut  string `json:"asset_out"`
	Fee       string `json:"fee"`
}

// AssetToNativeData is the payload of an AssetToNativeSwap record.
type AssetToNativeData struct {
	Seller    string `json:"seller"`
	AssetIn   string `json:"asset_in"`
	NativeOut string `json:"native_out"`
	Fee       string `json:"fee"`
}

// AssetToAssetData is the payload of the source pool's AssetToAssetSwap record.
type AssetToAssetData struct {
	Buyer       string `json:"buyer"`
	TargetAsset string `json:"target_asset"`
	TargetPool  string `json:"target_pool"`
	AssetIn     string `json:"asset_in"`
	NativeOut   string `json:"native_out"`
	AssetOut    string `json:"asset_out"`
}
