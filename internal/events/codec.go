package events

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"liquidityEngine/internal/model"
)

// CodecConfig configures a Codec.
type CodecConfig struct {
	// PoolAssets maps pool addresses to their asset so decoded records
	// carry it; logs only hold the pool address.
	PoolAssets map[common.Address]common.Address
}

// Codec converts pool records to EVM-style logs and back.
type Codec struct {
	poolABI     abi.ABI
	topicToKind map[string]model.RecordKind
	poolAssets  map[common.Address]common.Address
}

func NewCodec(cfg CodecConfig) (*Codec, error) {
	poolABI, err := PoolEventsABI()
	if err != nil {
		return nil, err
	}

	topicToKind := make(map[string]model.RecordKind, len(poolABI.Events))
	for _, kind := range []model.RecordKind{
		model.KindPoolInitialized,
		model.KindInvest,
		model.KindDivest,
		model.KindNativeToAssetSwap,
		model.KindAssetToNativeSwap,
		model.KindAssetToAssetSwap,
	} {
		event, ok := poolABI.Events[string(kind)]
		if !ok {
			return nil, fmt.Errorf("abi has no %s event", kind)
		}
		topicToKind[strings.ToLower(event.ID.Hex())] = kind
	}

	poolAssets := make(map[common.Address]common.Address, len(cfg.PoolAssets))
	for p, a := range cfg.PoolAssets {
		poolAssets[p] = a
	}

	return &Codec{
		poolABI:     poolABI,
		topicToKind: topicToKind,
		poolAssets:  poolAssets,
	}, nil
}

// Topic0 returns the event signature hash of kind.
func (c *Codec) Topic0(kind model.RecordKind) (common.Hash, bool) {
	event, ok := c.poolABI.Events[string(kind)]
	if !ok {
		return common.Hash{}, false
	}
	return event.ID, true
}

// Encode packs rec into a log emitted by its pool.
func (c *Codec) Encode(rec model.Record) (model.LogRecord, error) {
	event, ok := c.poolABI.Events[string(rec.Kind)]
	if !ok {
		return model.LogRecord{}, fmt.Errorf("unsupported record kind: %s", rec.Kind)
	}
	if !common.IsHexAddress(rec.Pool) {
		return model.LogRecord{}, fmt.Errorf("invalid pool address: %s", rec.Pool)
	}

	indexed, values, err := encodeArgs(rec)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("encode %s: %w", rec.Kind, err)
	}

	hashes, err := abi.MakeTopics(indexed...)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("make topics: %w", err)
	}
	topics := []string{event.ID.Hex()}
	for _, h := range hashes {
		topics = append(topics, h[0].Hex())
	}

	data, err := event.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", rec.Kind, err)
	}

	return model.LogRecord{
		TxID:        rec.TxID,
		BlockNumber: rec.BlockNumber,
		LogIndex:    rec.LogIndex,
		Address:     common.HexToAddress(rec.Pool).Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(data),
		Timestamp:   rec.Timestamp,
	}, nil
}

func encodeArgs(rec model.Record) ([][]interface{}, []interface{}, error) {
	switch data := rec.Data.(type) {
	case model.LiquidityData:
		provider, err := parseAddress(data.Provider)
		if err != nil {
			return nil, nil, err
		}
		values, err := parseAmounts(data.NativeAmount, data.AssetAmount, data.Shares)
		if err != nil {
			return nil, nil, err
		}
		return [][]interface{}{{provider}}, values, nil
	case model.NativeToAssetData:
		buyer, err := parseAddress(data.Buyer)
		if err != nil {
			return nil, nil, err
		}
		recipient, err := parseAddress(data.Recipient)
		if err != nil {
			return nil, nil, err
		}
		values, err := parseAmounts(data.NativeIn, data.AssetOut, data.Fee)
		if err != nil {
			return nil, nil, err
		}
		return [][]interface{}{{buyer}, {recipient}}, values, nil
	case model.AssetToNativeData:
		seller, err := parseAddress(data.Seller)
		if err != nil {
			return nil, nil, err
		}
		values, err := parseAmounts(data.AssetIn, data.NativeOut, data.Fee)
		if err != nil {
			return nil, nil, err
		}
		return [][]interface{}{{seller}}, values, nil
	case model.AssetToAssetData:
		buyer, err := parseAddress(data.Buyer)
		if err != nil {
			return nil, nil, err
		}
		target, err := parseAddress(data.TargetAsset)
		if err != nil {
			return nil, nil, err
		}
		targetPool, err := parseAddress(data.TargetPool)
		if err != nil {
			return nil, nil, err
		}
		amounts, err := parseAmounts(data.AssetIn, data.NativeOut, data.AssetOut)
		if err != nil {
			return nil, nil, err
		}
		return [][]interface{}{{buyer}, {target}}, append([]interface{}{targetPool}, amounts...), nil
	default:
		return nil, nil, fmt.Errorf("unsupported payload %T", rec.Data)
	}
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseAmounts(amounts ...string) ([]interface{}, error) {
	out := make([]interface{}, 0, len(amounts))
	for _, s := range amounts {
		v, err := uint256.FromDecimal(s)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		out = append(out, v.ToBig())
	}
	return out, nil
}

// CanDecode checks if the topic0 is a pool event.
func (c *Codec) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := c.topicToKind[strings.ToLower(topic0)]
	return ok
}

// Decode converts a log back into the record it was encoded from.
func (c *Codec) Decode(log model.LogRecord) (model.Record, error) {
	if len(log.Topics) == 0 {
		return model.Record{}, fmt.Errorf("missing topics")
	}
	kind, ok := c.topicToKind[strings.ToLower(log.Topics[0])]
	if !ok {
		return model.Record{}, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return model.Record{}, fmt.Errorf("invalid pool address: %s", log.Address)
	}
	pool := common.HexToAddress(log.Address)

	event := c.poolABI.Events[string(kind)]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.Record{}, err
	}
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.Record{}, err
	}

	var data interface{}
	switch kind {
	case model.KindPoolInitialized, model.KindInvest, model.KindDivest:
		data, err = decodeLiquidity(event, indexedTopics, values)
	case model.KindNativeToAssetSwap:
		data, err = decodeNativeToAsset(event, indexedTopics, values)
	case model.KindAssetToNativeSwap:
		data, err = decodeAssetToNative(event, indexedTopics, values)
	case model.KindAssetToAssetSwap:
		data, err = decodeAssetToAsset(event, indexedTopics, values)
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("decode %s: %w", kind, err)
	}

	rec := model.Record{
		TxID:        log.TxID,
		BlockNumber: log.BlockNumber,
		LogIndex:    log.LogIndex,
		Timestamp:   log.Timestamp,
		Pool:        pool.Hex(),
		Kind:        kind,
		Data:        data,
	}
	if asset, ok := c.poolAssets[pool]; ok {
		rec.Asset = asset.Hex()
	}
	return rec, nil
}

func decodeLiquidity(event abi.Event, topics []common.Hash, values []interface{}) (model.LiquidityData, error) {
	var indexed struct {
		Provider common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), topics); err != nil {
		return model.LiquidityData{}, fmt.Errorf("parse topics: %w", err)
	}
	amounts, err := asDecimals(values, 3)
	if err != nil {
		return model.LiquidityData{}, err
	}
	return model.LiquidityData{
		Provider:     indexed.Provider.Hex(),
		NativeAmount: amounts[0],
		AssetAmount:  amounts[1],
		Shares:       amounts[2],
	}, nil
}

func decodeNativeToAsset(event abi.Event, topics []common.Hash, values []interface{}) (model.NativeToAssetData, error) {
	var indexed struct {
		Buyer     common.Address
		Recipient common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), topics); err != nil {
		return model.NativeToAssetData{}, fmt.Errorf("parse topics: %w", err)
	}
	amounts, err := asDecimals(values, 3)
	if err != nil {
		return model.NativeToAssetData{}, err
	}
	return model.NativeToAssetData{
		Buyer:     indexed.Buyer.Hex(),
		Recipient: indexed.Recipient.Hex(),
		NativeIn:  amounts[0],
		AssetOut:  amounts[1],
		Fee:       amounts[2],
	}, nil
}

func decodeAssetToNative(event abi.Event, topics []common.Hash, values []interface{}) (model.AssetToNativeData, error) {
	var indexed struct {
		Seller common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), topics); err != nil {
		return model.AssetToNativeData{}, fmt.Errorf("parse topics: %w", err)
	}
	amounts, err := asDecimals(values, 3)
	if err != nil {
		return model.AssetToNativeData{}, err
	}
	return model.AssetToNativeData{
		Seller:    indexed.Seller.Hex(),
		AssetIn:   amounts[0],
		NativeOut: amounts[1],
		Fee:       amounts[2],
	}, nil
}

func decodeAssetToAsset(event abi.Event, topics []common.Hash, values []interface{}) (model.AssetToAssetData, error) {
	var indexed struct {
		Buyer       common.Address
		TargetAsset common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), topics); err != nil {
		return model.AssetToAssetData{}, fmt.Errorf("parse topics: %w", err)
	}
	if len(values) != 4 {
		return model.AssetToAssetData{}, fmt.Errorf("unexpected values: %d", len(values))
	}
	targetPool, err := asAddress(values[0])
	if err != nil {
		return model.AssetToAssetData{}, err
	}
	amounts, err := asDecimals(values[1:], 3)
	if err != nil {
		return model.AssetToAssetData{}, err
	}
	return model.AssetToAssetData{
		Buyer:       indexed.Buyer.Hex(),
		TargetAsset: indexed.TargetAsset.Hex(),
		TargetPool:  targetPool.Hex(),
		AssetIn:     amounts[0],
		NativeOut:   amounts[1],
		AssetOut:    amounts[2],
	}, nil
}
