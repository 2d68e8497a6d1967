package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityEngine/internal/model"
	"liquidityEngine/internal/txn"
)

// NativeToAssetSwap sells payment native pulled from caller and sends the
// asset output to recipient.
func (p *Pool) NativeToAssetSwap(tx *txn.Tx, caller, recipient common.Address, payment, minAssetOut *uint256.Int) (SwapResult, error) {
	before := p.reserves
	if !before.Initialized() {
		return SwapResult{}, ErrNotInitialized.Wrap("native to asset swap")
	}
	if err := requirePositive("native payment", payment); err != nil {
		return SwapResult{}, err
	}
	minAssetOut = orZero(minAssetOut)

	out, fee, err := NativeToAssetOutput(payment, before.Native, before.Asset)
	if err != nil {
		return SwapResult{}, err
	}
	if out.Lt(minAssetOut) {
		return SwapResult{}, ErrSlippageExceeded.Wrapf("asset out %s below minimum %s", out.Dec(), minAssetOut.Dec())
	}
	if out.Gt(before.Asset) {
		return SwapResult{}, ErrInsufficientVolume.Wrapf("asset out %s exceeds reserve %s", out.Dec(), before.Asset.Dec())
	}
	native, err := checkedAdd(before.Native, payment)
	if err != nil {
		return SwapResult{}, err
	}
	after := Reserves{Native: native, Asset: new(uint256.Int).Sub(before.Asset, out)}
	if err := checkK(before, after); err != nil {
		return SwapResult{}, err
	}

	if err := p.pullNative(tx, caller, payment); err != nil {
		return SwapResult{}, err
	}
	p.setReserves(tx, after)
	if err := p.pushAsset(tx, recipient, out); err != nil {
		return SwapResult{}, err
	}

	p.emit(tx, model.KindNativeToAssetSwap, model.NativeToAssetData{
		Buyer:     caller.Hex(),
		Recipient: recipient.Hex(),
		NativeIn:  payment.Dec(),
		AssetOut:  out.Dec(),
		Fee:       fee.Dec(),
	})
	p.logger.Debug("native to asset swap",
		zap.String("buyer", caller.Hex()),
		zap.String("recipient", recipient.Hex()),
		zap.String("native_in", payment.Dec()),
		zap.String("asset_out", out.Dec()),
		zap.String("fee", fee.Dec()),
	)
	return SwapResult{AmountIn: payment.Clone(), AmountOut: out, Fee: fee}, nil
}

// AssetToNativeSwap sells assetAmount pulled from caller for native.
func (p *Pool) AssetToNativeSwap(tx *txn.Tx, caller common.Address, assetAmount, minNativeOut *uint256.Int) (SwapResult, error) {
	before := p.reserves
	if !before.Initialized() {
		return SwapResult{}, ErrNotInitialized.Wrap("asset to native swap")
	}
	if err := requirePositive("asset amount", assetAmount); err != nil {
		return SwapResult{}, err
	}
	minNativeOut = orZero(minNativeOut)

	out, fee, err := AssetToNativeOutput(assetAmount, before.Native, before.Asset)
	if err != nil {
		return SwapResult{}, err
	}
	if out.Lt(minNativeOut) {
		return SwapResult{}, ErrSlippageExceeded.Wrapf("native out %s below minimum %s", out.Dec(), minNativeOut.Dec())
	}
	if out.Gt(before.Native) {
		return SwapResult{}, ErrInsufficientVolume.Wrapf("native out %s exceeds reserve %s", out.Dec(), before.Native.Dec())
	}
	asset, err := checkedAdd(before.Asset, assetAmount)
	if err != nil {
		return SwapResult{}, err
	}
	after := Reserves{Native: new(uint256.Int).Sub(before.Native, out), Asset: asset}
	if err := checkK(before, after); err != nil {
		return SwapResult{}, err
	}

	if err := p.pullAsset(tx, caller, assetAmount); err != nil {
		return SwapResult{}, err
	}
	p.setReserves(tx, after)
	if err := p.pushNative(tx, caller, out); err != nil {
		return SwapResult{}, err
	}

	p.emit(tx, model.KindAssetToNativeSwap, model.AssetToNativeData{
		Seller:    caller.Hex(),
		AssetIn:   assetAmount.Dec(),
		NativeOut: out.Dec(),
		Fee:       fee.Dec(),
	})
	p.logger.Debug("asset to native swap",
		zap.String("seller", caller.Hex()),
		zap.String("asset_in", assetAmount.Dec()),
		zap.String("native_out", out.Dec()),
		zap.String("fee", fee.Dec()),
	)
	return SwapResult{AmountIn: assetAmount.Clone(), AmountOut: out, Fee: fee}, nil
}

// AssetToAssetSwap sells assetAmount of this pool's asset for native and
// routes that native into the pool of targetAsset, whose output goes to
// caller. Local reserves are final before the destination is called.
func (p *Pool) AssetToAssetSwap(tx *txn.Tx, caller common.Address, assetAmount, minTargetOut *uint256.Int, targetAsset common.Address) (SwapResult, error) {
	before := p.reserves
	if !before.Initialized() {
		return SwapResult{}, ErrNotInitialized.Wrap("asset to asset swap")
	}
	if err := requirePositive("asset amount", assetAmount); err != nil {
		return SwapResult{}, err
	}
	dest, err := p.destination(targetAsset)
	if err != nil {
		return SwapResult{}, err
	}

	nativeOut, err := AssetToAssetNativeOutput(assetAmount, before.Native, before.Asset)
	if err != nil {
		return SwapResult{}, err
	}
	if nativeOut.Gt(before.Native) {
		return SwapResult{}, ErrInsufficientVolume.Wrapf("native out %s exceeds reserve %s", nativeOut.Dec(), before.Native.Dec())
	}
	asset, err := checkedAdd(before.Asset, assetAmount)
	if err != nil {
		return SwapResult{}, err
	}
	after := Reserves{Native: new(uint256.Int).Sub(before.Native, nativeOut), Asset: asset}
	if err := checkK(before, after); err != nil {
		return SwapResult{}, err
	}

	if err := p.pullAsset(tx, caller, assetAmount); err != nil {
		return SwapResult{}, err
	}
	p.setReserves(tx, after)

	sp := tx.Savepoint()
	nested, err := dest.NativeToAssetSwap(tx, p.address, caller, nativeOut, minTargetOut)
	if err != nil {
		tx.RollbackTo(sp)
		p.logger.Debug("composed swap leg failed",
			zap.String("target_pool", dest.Address().Hex()),
			zap.Error(err),
		)
		return SwapResult{}, fmt.Errorf("%w: %w", ErrComposedSwapFailed.Wrapf("destination %s", dest.Address().Hex()), err)
	}

	p.emit(tx, model.KindAssetToAssetSwap, model.AssetToAssetData{
		Buyer:       caller.Hex(),
		TargetAsset: targetAsset.Hex(),
		TargetPool:  dest.Address().Hex(),
		AssetIn:     assetAmount.Dec(),
		NativeOut:   nativeOut.Dec(),
		AssetOut:    nested.AmountOut.Dec(),
	})
	p.logger.Debug("asset to asset swap",
		zap.String("buyer", caller.Hex()),
		zap.String("target_pool", dest.Address().Hex()),
		zap.String("asset_in", assetAmount.Dec()),
		zap.String("native_routed", nativeOut.Dec()),
		zap.String("asset_out", nested.AmountOut.Dec()),
	)
	return SwapResult{
		AmountIn:     assetAmount.Clone(),
		AmountOut:    nested.AmountOut,
		Fee:          nested.Fee,
		NativeRouted: nativeOut,
	}, nil
}

func (p *Pool) destination(targetAsset common.Address) (Counterparty, error) {
	if p.resolver == nil {
		return nil, ErrComposedSwapFailed.Wrap("no registry configured")
	}
	dest, ok := p.resolver.ResolvePool(targetAsset)
	if !ok || dest == nil {
		return nil, ErrComposedSwapFailed.Wrapf("no pool for asset %s", targetAsset.Hex())
	}
	if dest.Address() == p.address {
		return nil, ErrComposedSwapFailed.Wrapf("target asset %s is traded by this pool", targetAsset.Hex())
	}
	return dest, nil
}

// checkK rejects a transition that lowers native*asset.
func checkK(before, after Reserves) error {
	if after.K().Cmp(before.K()) < 0 {
		return ErrInvariantViolated.Wrapf("k decreased from %s to %s", before.K(), after.K())
	}
	return nil
}
