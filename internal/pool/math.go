package pool

import (
	"math/big"

	"cosmossdk.io/errors"
	"github.com/holiman/uint256"
)

const (
	// MinimumLiquidity is the exclusive lower bound on both initial deposits.
	MinimumLiquidity uint64 = 1_000
	// InitialShares is the share baseline minted to the initializing provider.
	InitialShares uint64 = 1_000
	// FeeDivisor sets the swap fee to amount/500, i.e. 0.2%.
	FeeDivisor uint64 = 500
)

func checkedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, errors.Wrapf(ErrOverflow, "%s + %s", a.Dec(), b.Dec())
	}
	return sum, nil
}

func checkedSub(a, b *uint256.Int) (*uint256.Int, error) {
	diff, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, errors.Wrapf(ErrOverflow, "%s - %s", a.Dec(), b.Dec())
	}
	return diff, nil
}

func checkedMul(a, b *uint256.Int) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, errors.Wrapf(ErrOverflow, "%s * %s", a.Dec(), b.Dec())
	}
	return product, nil
}

func checkedDiv(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, errors.Wrapf(ErrOverflow, "%s / 0", a.Dec())
	}
	return new(uint256.Int).Div(a, b), nil
}

// mulDiv returns floor(a*b/c). The product must fit in 256 bits.
func mulDiv(a, b, c *uint256.Int) (*uint256.Int, error) {
	product, err := checkedMul(a, b)
	if err != nil {
		return nil, err
	}
	return checkedDiv(product, c)
}

// Fee returns the swap fee charged on amount.
func Fee(amount *uint256.Int) *uint256.Int {
	return new(uint256.Int).Div(amount, uint256.NewInt(FeeDivisor))
}

// NativeToAssetOutput returns floor((payment-fee)*asset/(native+payment)) and the fee.
func NativeToAssetOutput(payment, nativeReserve, assetReserve *uint256.Int) (out, fee *uint256.Int, err error) {
	return swapOutput(payment, nativeReserve, assetReserve)
}

// AssetToNativeOutput returns floor((amount-fee)*native/(asset+amount)) and the fee.
func AssetToNativeOutput(amount, nativeReserve, assetReserve *uint256.Int) (out, fee *uint256.Int, err error) {
	return swapOutput(amount, assetReserve, nativeReserve)
}

func swapOutput(in, inReserve, outReserve *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	fee := Fee(in)
	net := new(uint256.Int).Sub(in, fee)
	denominator, err := checkedAdd(inReserve, in)
	if err != nil {
		return nil, nil, err
	}
	out, err := mulDiv(net, outReserve, denominator)
	if err != nil {
		return nil, nil, err
	}
	return out, fee, nil
}

// AssetToAssetNativeOutput is the fee-free native projection of the first
// leg of a composed swap: floor(amount*native/(asset+amount)).
func AssetToAssetNativeOutput(amount, nativeReserve, assetReserve *uint256.Int) (*uint256.Int, error) {
	denominator, err := checkedAdd(assetReserve, amount)
	if err != nil {
		return nil, err
	}
	return mulDiv(amount, nativeReserve, denominator)
}

// SharesFor returns floor(nativeAmount*totalShares/nativeReserve).
func SharesFor(nativeAmount, totalShares, nativeReserve *uint256.Int) (*uint256.Int, error) {
	return mulDiv(nativeAmount, totalShares, nativeReserve)
}

// NativeFor returns floor(shares*nativeReserve/totalShares), the native value
// of shares.
func NativeFor(shares, nativeReserve, totalShares *uint256.Int) (*uint256.Int, error) {
	return mulDiv(shares, nativeReserve, totalShares)
}

// AssetFor returns floor(assetReserve/totalShares)*shares.
func AssetFor(shares, assetReserve, totalShares *uint256.Int) (*uint256.Int, error) {
	perShare, err := checkedDiv(assetReserve, totalShares)
	if err != nil {
		return nil, err
	}
	return checkedMul(perShare, shares)
}

// product computes a*b without truncation; k can exceed 256 bits.
func product(a, b *uint256.Int) *big.Int {
	return new(big.Int).Mul(a.ToBig(), b.ToBig())
}
