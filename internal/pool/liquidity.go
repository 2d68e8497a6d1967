package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityEngine/internal/model"
	"liquidityEngine/internal/txn"
)

// Initialize seeds an empty pool with nativePayment and assetAmount pulled
// from caller and mints InitialShares to caller. Asset dust left behind by a
// previous full divest stays in the pool.
func (p *Pool) Initialize(tx *txn.Tx, caller common.Address, nativePayment, assetAmount *uint256.Int) (LiquidityResult, error) {
	nativePayment, assetAmount = orZero(nativePayment), orZero(assetAmount)
	minimum := uint256.NewInt(MinimumLiquidity)
	if !nativePayment.Gt(minimum) || !assetAmount.Gt(minimum) {
		return LiquidityResult{}, ErrInsufficientLiquidity.Wrapf(
			"deposit %s native / %s asset, both must exceed %d", nativePayment.Dec(), assetAmount.Dec(), MinimumLiquidity)
	}
	before := p.reserves
	if before.Initialized() {
		return LiquidityResult{}, ErrAlreadyInitialized.Wrapf("reserves %s / %s", before.Native.Dec(), before.Asset.Dec())
	}
	if !p.shares.total.IsZero() {
		return LiquidityResult{}, ErrInvariantViolated.Wrapf("empty pool has %s shares outstanding", p.shares.total.Dec())
	}

	native, err := checkedAdd(before.Native, nativePayment)
	if err != nil {
		return LiquidityResult{}, err
	}
	asset, err := checkedAdd(before.Asset, assetAmount)
	if err != nil {
		return LiquidityResult{}, err
	}
	shares := uint256.NewInt(InitialShares)

	if err := p.pullNative(tx, caller, nativePayment); err != nil {
		return LiquidityResult{}, err
	}
	if err := p.pullAsset(tx, caller, assetAmount); err != nil {
		return LiquidityResult{}, err
	}

	if err := p.mintShares(tx, caller, shares); err != nil {
		return LiquidityResult{}, err
	}
	p.setReserves(tx, Reserves{Native: native, Asset: asset})

	p.emit(tx, model.KindPoolInitialized, model.LiquidityData{
		Provider:     caller.Hex(),
		NativeAmount: nativePayment.Dec(),
		AssetAmount:  assetAmount.Dec(),
		Shares:       shares.Dec(),
	})
	p.logger.Debug("pool initialized",
		zap.String("provider", caller.Hex()),
		zap.String("native", nativePayment.Dec()),
		zap.String("asset", assetAmount.Dec()),
	)
	return LiquidityResult{Shares: shares, NativeAmount: nativePayment.Clone(), AssetAmount: assetAmount.Clone()}, nil
}

// Invest adds nativePayment and the matching asset contribution, minting
// shares in proportion to the native side.
func (p *Pool) Invest(tx *txn.Tx, caller common.Address, nativePayment, minShares *uint256.Int) (LiquidityResult, error) {
	before := p.reserves
	if !before.Initialized() {
		return LiquidityResult{}, ErrNotInitialized.Wrap("invest")
	}
	if err := requirePositive("native payment", nativePayment); err != nil {
		return LiquidityResult{}, err
	}
	minShares = orZero(minShares)
	total := p.shares.Total()

	shares, err := SharesFor(nativePayment, total, before.Native)
	if err != nil {
		return LiquidityResult{}, err
	}
	if shares.Lt(minShares) {
		return LiquidityResult{}, ErrSlippageExceeded.Wrapf("shares %s below minimum %s", shares.Dec(), minShares.Dec())
	}
	if shares.IsZero() {
		return LiquidityResult{}, ErrInvalidAmount.Wrapf("payment %s buys no shares", nativePayment.Dec())
	}
	assetAmount, err := AssetFor(shares, before.Asset, total)
	if err != nil {
		return LiquidityResult{}, err
	}
	if assetAmount.IsZero() {
		return LiquidityResult{}, ErrInsufficientLiquidity.Wrapf("asset per share rounds to zero (%s / %s)", before.Asset.Dec(), total.Dec())
	}
	native, err := checkedAdd(before.Native, nativePayment)
	if err != nil {
		return LiquidityResult{}, err
	}
	asset, err := checkedAdd(before.Asset, assetAmount)
	if err != nil {
		return LiquidityResult{}, err
	}

	if err := p.pullNative(tx, caller, nativePayment); err != nil {
		return LiquidityResult{}, err
	}
	if err := p.pullAsset(tx, caller, assetAmount); err != nil {
		return LiquidityResult{}, err
	}

	if err := p.mintShares(tx, caller, shares); err != nil {
		return LiquidityResult{}, err
	}
	p.setReserves(tx, Reserves{Native: native, Asset: asset})

	p.emit(tx, model.KindInvest, model.LiquidityData{
		Provider:     caller.Hex(),
		NativeAmount: nativePayment.Dec(),
		AssetAmount:  assetAmount.Dec(),
		Shares:       shares.Dec(),
	})
	p.logger.Debug("invest",
		zap.String("provider", caller.Hex()),
		zap.String("native", nativePayment.Dec()),
		zap.String("asset", assetAmount.Dec()),
		zap.String("shares", shares.Dec()),
	)
	return LiquidityResult{Shares: shares, NativeAmount: nativePayment.Clone(), AssetAmount: assetAmount}, nil
}

// Divest burns the shares implied by nativeAmount and pays out their native
// and asset value. The native paid is the value of the burned shares, which
// rounding keeps at or below nativeAmount.
func (p *Pool) Divest(tx *txn.Tx, caller common.Address, nativeAmount, minAsset *uint256.Int) (LiquidityResult, error) {
	before := p.reserves
	if !before.Initialized() {
		return LiquidityResult{}, ErrNotInitialized.Wrap("divest")
	}
	if err := requirePositive("native amount", nativeAmount); err != nil {
		return LiquidityResult{}, err
	}
	minAsset = orZero(minAsset)
	total := p.shares.Total()

	shares, err := SharesFor(nativeAmount, total, before.Native)
	if err != nil {
		return LiquidityResult{}, err
	}
	if held := p.shares.BalanceOf(caller); shares.Gt(held) {
		return LiquidityResult{}, ErrInsufficientShares.Wrapf("withdrawal needs %s shares, %s holds %s", shares.Dec(), caller.Hex(), held.Dec())
	}
	if shares.IsZero() {
		return LiquidityResult{}, ErrInsufficientShares.Wrapf("withdrawal of %s native is below one share", nativeAmount.Dec())
	}
	nativeOut, err := NativeFor(shares, before.Native, total)
	if err != nil {
		return LiquidityResult{}, err
	}
	assetAmount, err := AssetFor(shares, before.Asset, total)
	if err != nil {
		return LiquidityResult{}, err
	}
	if assetAmount.Lt(minAsset) {
		return LiquidityResult{}, ErrSlippageExceeded.Wrapf("asset out %s below minimum %s", assetAmount.Dec(), minAsset.Dec())
	}
	native, err := checkedSub(before.Native, nativeOut)
	if err != nil {
		return LiquidityResult{}, err
	}
	asset, err := checkedSub(before.Asset, assetAmount)
	if err != nil {
		return LiquidityResult{}, err
	}

	if err := p.burnShares(tx, caller, shares); err != nil {
		return LiquidityResult{}, err
	}
	p.setReserves(tx, Reserves{Native: native, Asset: asset})

	if err := p.pushAsset(tx, caller, assetAmount); err != nil {
		return LiquidityResult{}, err
	}
	if err := p.pushNative(tx, caller, nativeOut); err != nil {
		return LiquidityResult{}, err
	}

	p.emit(tx, model.KindDivest, model.LiquidityData{
		Provider:     caller.Hex(),
		NativeAmount: nativeOut.Dec(),
		AssetAmount:  assetAmount.Dec(),
		Shares:       shares.Dec(),
	})
	p.logger.Debug("divest",
		zap.String("provider", caller.Hex()),
		zap.String("requested", nativeAmount.Dec()),
		zap.String("native", nativeOut.Dec()),
		zap.String("asset", assetAmount.Dec()),
		zap.String("shares", shares.Dec()),
	)
	return LiquidityResult{Shares: shares, NativeAmount: nativeOut, AssetAmount: assetAmount}, nil
}
