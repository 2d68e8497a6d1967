package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// QuoteNativeToAsset returns what NativeToAssetSwap would pay out now.
func (p *Pool) QuoteNativeToAsset(payment *uint256.Int) (out, fee *uint256.Int, err error) {
	if !p.reserves.Initialized() {
		return nil, nil, ErrNotInitialized.Wrap("quote native to asset")
	}
	if err := requirePositive("native payment", payment); err != nil {
		return nil, nil, err
	}
	return NativeToAssetOutput(payment, p.reserves.Native, p.reserves.Asset)
}

// QuoteAssetToNative returns what AssetToNativeSwap would pay out now.
func (p *Pool) QuoteAssetToNative(assetAmount *uint256.Int) (out, fee *uint256.Int, err error) {
	if !p.reserves.Initialized() {
		return nil, nil, ErrNotInitialized.Wrap("quote asset to native")
	}
	if err := requirePositive("asset amount", assetAmount); err != nil {
		return nil, nil, err
	}
	return AssetToNativeOutput(assetAmount, p.reserves.Native, p.reserves.Asset)
}

// QuoteAssetToAsset returns the native routed and the target asset that
// AssetToAssetSwap would deliver now.
func (p *Pool) QuoteAssetToAsset(assetAmount *uint256.Int, targetAsset common.Address) (nativeOut, assetOut *uint256.Int, err error) {
	if !p.reserves.Initialized() {
		return nil, nil, ErrNotInitialized.Wrap("quote asset to asset")
	}
	if err := requirePositive("asset amount", assetAmount); err != nil {
		return nil, nil, err
	}
	dest, err := p.destination(targetAsset)
	if err != nil {
		return nil, nil, err
	}
	nativeOut, err = AssetToAssetNativeOutput(assetAmount, p.reserves.Native, p.reserves.Asset)
	if err != nil {
		return nil, nil, err
	}
	assetOut, _, err = dest.QuoteNativeToAsset(nativeOut)
	if err != nil {
		return nil, nil, err
	}
	return nativeOut, assetOut, nil
}
