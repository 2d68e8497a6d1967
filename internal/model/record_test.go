package model

import (
	"encoding/json"
	"testing"
)

func TestRecordPayloadAmountsAreStrings(t *testing.T) {
	rec := Record{
		TxID: 1,
		Pool: "0x1111111111111111111111111111111111111111",
		Kind: KindNativeToAssetSwap,
		Data: NativeToAssetData{
			Buyer:     "0x2222222222222222222222222222222222222222",
			Recipient: "0x2222222222222222222222222222222222222222",
			NativeIn:  "115792089237316195423570985008687907853269984665640564039457584007913129639935",
			AssetOut:  "998000",
			Fee:       "2000",
		},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var raw RawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if raw.Kind != KindNativeToAssetSwap {
		t.Fatalf("unexpected kind %q", raw.Kind)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw.Data, &decoded); err != nil {
		t.Fatalf("unmarshal payload failed: %v", err)
	}
	for _, key := range []string{"native_in", "asset_out", "fee"} {
		if _, ok := decoded[key].(string); !ok {
			t.Fatalf("%s should be string", key)
		}
	}
}
