package pool

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"pgregory.net/rapid"

	"liquidityEngine/internal/txn"
)

// Swaps never lower native*asset, and raise it whenever a fee is charged.
func TestPropertySwapsNeverDecreaseK(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(rt)
		native := rapid.Uint64Range(MinimumLiquidity+1, 10_000_000).Draw(rt, "native")
		asset := rapid.Uint64Range(MinimumLiquidity+1, 10_000_000).Draw(rt, "asset")
		f.initialize(rt, f.px, alice, native, asset)

		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			before := f.px.Reserves().K()
			amount := rapid.Uint64Range(1, 5_000_000).Draw(rt, "amount")
			sellNative := rapid.Bool().Draw(rt, "sellNative")

			var res SwapResult
			_, err := f.run(func(tx *txn.Tx) error {
				var err error
				if sellNative {
					res, err = f.px.NativeToAssetSwap(tx, bob, bob, u(amount), nil)
				} else {
					res, err = f.px.AssetToNativeSwap(tx, bob, u(amount), nil)
				}
				return err
			})
			if err != nil {
				rt.Fatalf("swap %d failed: %v", i, err)
			}

			after := f.px.Reserves().K()
			switch cmp := after.Cmp(before); {
			case cmp < 0:
				rt.Fatalf("k decreased from %s to %s", before, after)
			case cmp == 0 && !res.Fee.IsZero():
				rt.Fatalf("k unchanged despite fee %s", res.Fee.Dec())
			}
			if !f.px.Initialized() {
				rt.Fatalf("swap drained a reserve")
			}
			if err := f.px.CheckInvariants(); err != nil {
				rt.Fatalf("invariants: %v", err)
			}
		}
	})
}

// The share ledger always sums to its total across invest and divest.
func TestPropertyShareLedgerBalances(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(rt)
		f.initialize(rt, f.px, alice,
			rapid.Uint64Range(MinimumLiquidity+1, 5_000_000).Draw(rt, "native"),
			rapid.Uint64Range(MinimumLiquidity+1, 5_000_000).Draw(rt, "asset"),
		)

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			who := rapid.SampledFrom([]common.Address{alice, bob}).Draw(rt, "caller")
			amount := rapid.Uint64Range(1, 2_000_000).Draw(rt, "amount")
			invest := rapid.Bool().Draw(rt, "invest")

			_, _ = f.run(func(tx *txn.Tx) error {
				if invest {
					_, err := f.px.Invest(tx, who, u(amount), nil)
					return err
				}
				_, err := f.px.Divest(tx, who, u(amount), nil)
				return err
			})

			if err := f.px.CheckInvariants(); err != nil {
				rt.Fatalf("step %d: %v", i, err)
			}
		}
	})
}

// Invest mints shares proportional to the native contributed, within one
// unit of rounding.
func TestPropertyInvestProportional(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(rt)
		f.initialize(rt, f.px, alice,
			rapid.Uint64Range(MinimumLiquidity+1, 5_000_000).Draw(rt, "native"),
			rapid.Uint64Range(MinimumLiquidity+1, 5_000_000).Draw(rt, "asset"),
		)
		payment := rapid.Uint64Range(1, 5_000_000).Draw(rt, "payment")

		var res LiquidityResult
		_, err := f.run(func(tx *txn.Tx) error {
			var err error
			res, err = f.px.Invest(tx, bob, u(payment), nil)
			return err
		})
		if err != nil {
			// Payments too small to buy a share are rejected.
			return
		}

		r := f.px.Reserves()
		total := f.px.TotalShares()
		// shares/total vs payment/native, cross-multiplied.
		lhs := new(big.Int).Mul(res.Shares.ToBig(), r.Native.ToBig())
		rhs := new(big.Int).Mul(new(big.Int).SetUint64(payment), total.ToBig())
		diff := new(big.Int).Abs(new(big.Int).Sub(lhs, rhs))
		if diff.Cmp(r.Native.ToBig()) > 0 {
			rt.Fatalf("shares %s of %s not proportional to %d of %s", res.Shares.Dec(), total.Dec(), payment, r.Native.Dec())
		}
	})
}

// Divest burns shares in proportion to the native paid out and never pays
// more than the burned shares are worth.
func TestPropertyDivestProportional(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(rt)
		f.initialize(rt, f.px, alice,
			rapid.Uint64Range(MinimumLiquidity+1, 5_000_000).Draw(rt, "native"),
			rapid.Uint64Range(MinimumLiquidity+1, 5_000_000).Draw(rt, "asset"),
		)
		payment := rapid.Uint64Range(1, 5_000_000).Draw(rt, "payment")
		if _, err := f.run(func(tx *txn.Tx) error {
			_, err := f.px.Invest(tx, bob, u(payment), nil)
			return err
		}); err != nil {
			return
		}
		startNative := f.native.BalanceOf(bob).Uint64() + payment

		before := f.px.Reserves()
		total := f.px.TotalShares()
		held := f.px.SharesOf(bob)
		// Up to twice the native value of bob's shares.
		limit := new(big.Int).Div(new(big.Int).Mul(held.ToBig(), before.Native.ToBig()), total.ToBig()).Uint64()
		request := rapid.Uint64Range(1, 2*limit+1).Draw(rt, "request")

		var res LiquidityResult
		_, err := f.run(func(tx *txn.Tx) error {
			var err error
			res, err = f.px.Divest(tx, bob, u(request), nil)
			return err
		})
		if err != nil {
			if !errors.Is(err, ErrInsufficientShares) {
				rt.Fatalf("divest %d: %v", request, err)
			}
			return
		}

		if res.NativeAmount.Uint64() > request {
			rt.Fatalf("paid %s native for a request of %d", res.NativeAmount.Dec(), request)
		}
		// shares/total vs nativeOut/native: floor leaves 0 <= shares*native - out*total < total.
		lhs := new(big.Int).Mul(res.Shares.ToBig(), before.Native.ToBig())
		rhs := new(big.Int).Mul(res.NativeAmount.ToBig(), total.ToBig())
		diff := new(big.Int).Sub(lhs, rhs)
		if diff.Sign() < 0 || diff.Cmp(total.ToBig()) >= 0 {
			rt.Fatalf("paid %s of %s for %s of %s shares", res.NativeAmount.Dec(), before.Native.Dec(), res.Shares.Dec(), total.Dec())
		}
		assetValue := new(big.Int).Div(new(big.Int).Mul(res.Shares.ToBig(), before.Asset.ToBig()), total.ToBig())
		if res.AssetAmount.ToBig().Cmp(assetValue) > 0 {
			rt.Fatalf("paid %s asset, shares are worth %s", res.AssetAmount.Dec(), assetValue)
		}
		if got := f.native.BalanceOf(bob).Uint64(); got > startNative {
			rt.Fatalf("bob ends with %d native, started with %d", got, startNative)
		}
		if err := f.px.CheckInvariants(); err != nil {
			rt.Fatalf("invariants: %v", err)
		}
	})
}

// Investing and then divesting the same native amount restores the share
// count and leaves at most one share's worth of native behind.
func TestPropertyInvestDivestRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(rt)
		f.initialize(rt, f.px, alice,
			rapid.Uint64Range(MinimumLiquidity+1, 5_000_000).Draw(rt, "native"),
			rapid.Uint64Range(MinimumLiquidity+1, 5_000_000).Draw(rt, "asset"),
		)
		start := f.px.Reserves()
		startNative := f.native.BalanceOf(bob).Uint64()
		startAsset := f.x.BalanceOf(bob).Uint64()
		payment := rapid.Uint64Range(1, 5_000_000).Draw(rt, "payment")

		if _, err := f.run(func(tx *txn.Tx) error {
			_, err := f.px.Invest(tx, bob, u(payment), nil)
			return err
		}); err != nil {
			return
		}
		invested := f.px.Reserves()
		perShare := invested.Native.Uint64() / f.px.TotalShares().Uint64()

		_, err := f.run(func(tx *txn.Tx) error {
			_, err := f.px.Divest(tx, bob, u(payment), nil)
			return err
		})
		if err != nil {
			rt.Fatalf("divest of the invested %d: %v", payment, err)
		}

		if !f.px.SharesOf(bob).IsZero() {
			rt.Fatalf("bob keeps %s shares", f.px.SharesOf(bob).Dec())
		}
		end := f.px.Reserves()
		if !end.Asset.Eq(start.Asset) {
			rt.Fatalf("asset reserve %s, was %s", end.Asset.Dec(), start.Asset.Dec())
		}
		if end.Native.Lt(start.Native) {
			rt.Fatalf("native reserve fell from %s to %s", start.Native.Dec(), end.Native.Dec())
		}
		if residue := end.Native.Uint64() - start.Native.Uint64(); residue > perShare+1 {
			rt.Fatalf("native residue %d above one share (%d)", residue, perShare)
		}
		if got := f.native.BalanceOf(bob).Uint64(); got > startNative {
			rt.Fatalf("bob gained native: %d > %d", got, startNative)
		}
		if got := f.x.BalanceOf(bob).Uint64(); got != startAsset {
			rt.Fatalf("bob asset %d, was %d", got, startAsset)
		}
	})
}

func TestPropertyQuoteFormulaBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		native := uint256.NewInt(rapid.Uint64Range(1, 1<<62).Draw(rt, "native"))
		asset := uint256.NewInt(rapid.Uint64Range(1, 1<<62).Draw(rt, "asset"))
		payment := uint256.NewInt(rapid.Uint64Range(1, 1<<62).Draw(rt, "payment"))

		out, fee, err := NativeToAssetOutput(payment, native, asset)
		if err != nil {
			rt.Fatalf("quote: %v", err)
		}
		if !out.Lt(asset) {
			rt.Fatalf("output %s not below reserve %s", out.Dec(), asset.Dec())
		}
		if fee.Gt(payment) {
			rt.Fatalf("fee %s above payment %s", fee.Dec(), payment.Dec())
		}
	})
}
