package pool

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liquidityEngine/internal/ledger"
	"liquidityEngine/internal/model"
	"liquidityEngine/internal/txn"
)

var (
	alice  = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob    = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	assetX = common.HexToAddress("0x000000000000000000000000000000000000aaaa")
	assetY = common.HexToAddress("0x000000000000000000000000000000000000bbbb")
	poolX  = common.HexToAddress("0x000000000000000000000000000000000000f00a")
	poolY  = common.HexToAddress("0x000000000000000000000000000000000000f00b")
)

type mapResolver map[common.Address]*Pool

func (m mapResolver) ResolvePool(asset common.Address) (Counterparty, bool) {
	p, ok := m[asset]
	if !ok {
		return nil, false
	}
	return p, true
}

type fixture struct {
	native   *ledger.MemoryLedger
	x, y     *ledger.MemoryLedger
	px, py   *Pool
	resolver mapResolver
	seq      uint64
}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

// testingT is satisfied by *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

func newFixture(t testingT) *fixture {
	t.Helper()
	f := &fixture{
		native:   ledger.NewMemoryLedger(common.Address{}, "NATIVE", nil),
		x:        ledger.NewMemoryLedger(assetX, "X", nil),
		y:        ledger.NewMemoryLedger(assetY, "Y", nil),
		resolver: mapResolver{},
	}
	var err error
	f.px, err = New(Config{Address: poolX, Asset: assetX, Assets: f.x, Native: f.native, Resolver: f.resolver}, nil)
	require.NoError(t, err)
	f.py, err = New(Config{Address: poolY, Asset: assetY, Assets: f.y, Native: f.native, Resolver: f.resolver}, nil)
	require.NoError(t, err)
	f.resolver[assetX] = f.px
	f.resolver[assetY] = f.py

	for _, acct := range []common.Address{alice, bob} {
		require.NoError(t, f.native.Mint(acct, u(100_000_000)))
		require.NoError(t, f.x.Mint(acct, u(100_000_000)))
		require.NoError(t, f.y.Mint(acct, u(100_000_000)))
		f.x.Approve(acct, poolX, new(uint256.Int).SetAllOne())
		f.y.Approve(acct, poolY, new(uint256.Int).SetAllOne())
	}
	return f
}

func (f *fixture) tx() *txn.Tx {
	f.seq++
	return txn.New(f.seq, f.seq, time.Unix(1700000000, 0))
}

// run executes fn in a fresh transaction, committing on success and
// rolling back on failure.
func (f *fixture) run(fn func(tx *txn.Tx) error) ([]model.Record, error) {
	tx := f.tx()
	if err := fn(tx); err != nil {
		tx.Rollback()
		return nil, err
	}
	return tx.Commit()
}

func (f *fixture) initialize(t testingT, p *Pool, caller common.Address, native, asset uint64) {
	t.Helper()
	_, err := f.run(func(tx *txn.Tx) error {
		_, err := p.Initialize(tx, caller, u(native), u(asset))
		return err
	})
	require.NoError(t, err)
}

func TestInitializeThenSwapScenario(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)

	r := f.px.Reserves()
	assert.Equal(t, uint64(1_000_000), r.Native.Uint64())
	assert.Equal(t, uint64(2_000_000), r.Asset.Uint64())
	assert.Equal(t, "2000000000000", r.K().String())
	assert.Equal(t, InitialShares, f.px.SharesOf(alice).Uint64())
	assert.Equal(t, InitialShares, f.px.TotalShares().Uint64())

	var res SwapResult
	records, err := f.run(func(tx *txn.Tx) error {
		var err error
		res, err = f.px.NativeToAssetSwap(tx, bob, bob, u(1_000_000), u(0))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000), res.Fee.Uint64())
	assert.Equal(t, uint64(998_000), res.AmountOut.Uint64())

	after := f.px.Reserves()
	assert.Equal(t, uint64(2_000_000), after.Native.Uint64())
	assert.Equal(t, uint64(1_002_000), after.Asset.Uint64())
	assert.Equal(t, 1, after.K().Cmp(r.K()), "k must strictly increase")
	assert.Equal(t, uint64(100_000_000+998_000), f.x.BalanceOf(bob).Uint64())

	require.Len(t, records, 1)
	assert.Equal(t, model.KindNativeToAssetSwap, records[0].Kind)
	assert.Equal(t, model.NativeToAssetData{
		Buyer:     bob.Hex(),
		Recipient: bob.Hex(),
		NativeIn:  "1000000",
		AssetOut:  "998000",
		Fee:       "2000",
	}, records[0].Data)
	require.NoError(t, f.px.CheckInvariants())
}

func TestInitializeThreshold(t *testing.T) {
	cases := []struct {
		name   string
		native uint64
		asset  uint64
		err    error
	}{
		{name: "both at minimum", native: 1_000, asset: 1_000, err: ErrInsufficientLiquidity},
		{name: "native at minimum", native: 1_000, asset: 5_000, err: ErrInsufficientLiquidity},
		{name: "asset at minimum", native: 5_000, asset: 1_000, err: ErrInsufficientLiquidity},
		{name: "zero", native: 0, asset: 0, err: ErrInsufficientLiquidity},
		{name: "minimum plus one", native: 1_001, asset: 1_001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.run(func(tx *txn.Tx) error {
				_, err := f.px.Initialize(tx, alice, u(tc.native), u(tc.asset))
				return err
			})
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				assert.False(t, f.px.Initialized())
				assert.Equal(t, uint64(100_000_000), f.native.BalanceOf(alice).Uint64())
				return
			}
			require.NoError(t, err)
			assert.True(t, f.px.Initialized())
		})
	}
}

func TestInitializeTwiceFails(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 10_000, 10_000)

	_, err := f.run(func(tx *txn.Tx) error {
		_, err := f.px.Initialize(tx, bob, u(10_000), u(10_000))
		return err
	})
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.True(t, f.px.SharesOf(bob).IsZero())
}

func TestOperationsRequireInitializedPool(t *testing.T) {
	ops := map[string]func(f *fixture, tx *txn.Tx) error{
		"invest": func(f *fixture, tx *txn.Tx) error {
			_, err := f.px.Invest(tx, alice, u(10_000), u(0))
			return err
		},
		"divest": func(f *fixture, tx *txn.Tx) error {
			_, err := f.px.Divest(tx, alice, u(10_000), u(0))
			return err
		},
		"native to asset": func(f *fixture, tx *txn.Tx) error {
			_, err := f.px.NativeToAssetSwap(tx, alice, alice, u(10_000), u(0))
			return err
		},
		"asset to native": func(f *fixture, tx *txn.Tx) error {
			_, err := f.px.AssetToNativeSwap(tx, alice, u(10_000), u(0))
			return err
		},
		"asset to asset": func(f *fixture, tx *txn.Tx) error {
			_, err := f.px.AssetToAssetSwap(tx, alice, u(10_000), u(0), assetY)
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.run(func(tx *txn.Tx) error { return op(f, tx) })
			require.ErrorIs(t, err, ErrNotInitialized)
			assert.Equal(t, "NotInitialized", ErrorName(err))
		})
	}
}

func TestZeroAmountsRejected(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)

	_, err := f.px.Invest(f.tx(), alice, u(0), u(0))
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.px.NativeToAssetSwap(f.tx(), alice, alice, u(0), u(0))
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.px.AssetToNativeSwap(f.tx(), alice, nil, u(0))
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestInvestAndDivestAreProportional(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)

	var invested LiquidityResult
	_, err := f.run(func(tx *txn.Tx) error {
		var err error
		invested, err = f.px.Invest(tx, bob, u(500_000), u(500))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(500), invested.Shares.Uint64())
	assert.Equal(t, uint64(1_000_000), invested.AssetAmount.Uint64())
	assert.Equal(t, uint64(1_500), f.px.TotalShares().Uint64())
	assert.Equal(t, uint64(1_500_000), f.px.Reserves().Native.Uint64())
	assert.Equal(t, uint64(3_000_000), f.px.Reserves().Asset.Uint64())

	var divested LiquidityResult
	_, err = f.run(func(tx *txn.Tx) error {
		var err error
		divested, err = f.px.Divest(tx, bob, u(500_000), u(1_000_000))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(500), divested.Shares.Uint64())
	assert.Equal(t, uint64(1_000_000), divested.AssetAmount.Uint64())
	assert.True(t, f.px.SharesOf(bob).IsZero())
	assert.Equal(t, uint64(1_000_000), f.px.Reserves().Native.Uint64())
	assert.Equal(t, uint64(2_000_000), f.px.Reserves().Asset.Uint64())
	assert.Equal(t, uint64(100_000_000), f.native.BalanceOf(bob).Uint64())
	assert.Equal(t, uint64(100_000_000), f.x.BalanceOf(bob).Uint64())
	require.NoError(t, f.px.CheckInvariants())
}

func TestDivestPaysNoMoreThanBurnedShares(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)
	startNative := f.native.BalanceOf(bob).Uint64()
	startAsset := f.x.BalanceOf(bob).Uint64()

	for i := 0; i < 10; i++ {
		r := f.px.Reserves()
		total := f.px.TotalShares().Uint64()
		perShare := r.Native.Uint64() / total

		_, err := f.run(func(tx *txn.Tx) error {
			_, err := f.px.Invest(tx, bob, u(perShare+1), u(1))
			return err
		})
		require.NoError(t, err)
		require.Equal(t, uint64(1), f.px.SharesOf(bob).Uint64())

		// Ask for almost two shares' worth while holding one.
		r = f.px.Reserves()
		total = f.px.TotalShares().Uint64()
		request := 2*r.Native.Uint64()/total - 1
		var res LiquidityResult
		_, err = f.run(func(tx *txn.Tx) error {
			var err error
			res, err = f.px.Divest(tx, bob, u(request), u(0))
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), res.Shares.Uint64())
		assert.Equal(t, r.Native.Uint64()/total, res.NativeAmount.Uint64(), "cycle %d pays one share", i)
		assert.True(t, f.px.SharesOf(bob).IsZero())
		require.NoError(t, f.px.CheckInvariants())
	}

	assert.LessOrEqual(t, f.native.BalanceOf(bob).Uint64(), startNative)
	assert.LessOrEqual(t, f.x.BalanceOf(bob).Uint64(), startAsset)
	assert.GreaterOrEqual(t, f.px.Reserves().Native.Uint64(), uint64(1_000_000))
	assert.Equal(t, uint64(2_000_000), f.px.Reserves().Asset.Uint64())
	assert.Equal(t, InitialShares, f.px.TotalShares().Uint64())
}

func TestInvestSlippage(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)

	_, err := f.run(func(tx *txn.Tx) error {
		_, err := f.px.Invest(tx, bob, u(500_000), u(501))
		return err
	})
	require.ErrorIs(t, err, ErrSlippageExceeded)
	assert.Equal(t, uint64(1_000), f.px.TotalShares().Uint64())
}

func TestDivestBeyondOwnSharesFails(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)
	_, err := f.run(func(tx *txn.Tx) error {
		_, err := f.px.Invest(tx, bob, u(1_000_000), u(0))
		return err
	})
	require.NoError(t, err)
	require.Equal(t, uint64(2_000), f.px.TotalShares().Uint64())

	// 1001 shares implied; bob holds 1000 while the pool has 2000 in total.
	_, err = f.run(func(tx *txn.Tx) error {
		_, err := f.px.Divest(tx, bob, u(1_001_000), u(0))
		return err
	})
	require.ErrorIs(t, err, ErrInsufficientShares)
	assert.Equal(t, uint64(1_000), f.px.SharesOf(bob).Uint64())
	assert.Equal(t, uint64(2_000_000), f.px.Reserves().Native.Uint64())
}

func TestDivestSlippage(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)

	_, err := f.run(func(tx *txn.Tx) error {
		_, err := f.px.Divest(tx, alice, u(100_000), u(200_001))
		return err
	})
	require.ErrorIs(t, err, ErrSlippageExceeded)
	assert.Equal(t, uint64(1_000), f.px.SharesOf(alice).Uint64())
}

func TestTransferFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)
	f.x.Freeze(bob)

	_, err := f.run(func(tx *txn.Tx) error {
		_, err := f.px.Invest(tx, bob, u(100_000), u(0))
		return err
	})
	require.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, uint64(100_000_000), f.native.BalanceOf(bob).Uint64(), "native pull must be undone")
	assert.Equal(t, uint64(1_000_000), f.px.Reserves().Native.Uint64())
	assert.True(t, f.px.SharesOf(bob).IsZero())
}

func TestDivestPushFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)
	before := f.px.Snapshot()
	f.native.Freeze(alice)

	_, err := f.run(func(tx *txn.Tx) error {
		_, err := f.px.Divest(tx, alice, u(100_000), u(0))
		return err
	})
	require.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, before, f.px.Snapshot())
	assert.Equal(t, uint64(98_000_000), f.x.BalanceOf(alice).Uint64(), "asset push must be undone")
}

func TestReinitializeAfterFullDivest(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_001, 2_000_500)

	var res LiquidityResult
	_, err := f.run(func(tx *txn.Tx) error {
		var err error
		res, err = f.px.Divest(tx, alice, u(1_000_001), u(0))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), res.Shares.Uint64())
	assert.Equal(t, uint64(2_000_000), res.AssetAmount.Uint64())
	assert.False(t, f.px.Initialized())
	assert.True(t, f.px.TotalShares().IsZero())
	assert.Equal(t, uint64(500), f.px.Reserves().Asset.Uint64(), "rounding residue stays in the pool")
	require.NoError(t, f.px.CheckInvariants())

	_, err = f.run(func(tx *txn.Tx) error {
		_, err := f.px.Invest(tx, bob, u(10_000), u(0))
		return err
	})
	require.ErrorIs(t, err, ErrNotInitialized)

	f.initialize(t, f.px, bob, 5_000, 7_000)
	assert.Equal(t, uint64(5_000), f.px.Reserves().Native.Uint64())
	assert.Equal(t, uint64(7_500), f.px.Reserves().Asset.Uint64())
	assert.Equal(t, InitialShares, f.px.SharesOf(bob).Uint64())
	assert.True(t, f.px.SharesOf(alice).IsZero())
	require.NoError(t, f.px.CheckInvariants())
}

func TestAssetToNativeSwap(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)
	k := f.px.Reserves().K()

	var res SwapResult
	_, err := f.run(func(tx *txn.Tx) error {
		var err error
		res, err = f.px.AssetToNativeSwap(tx, bob, u(10_000), u(4_965))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(20), res.Fee.Uint64())
	assert.Equal(t, uint64(4_965), res.AmountOut.Uint64())
	assert.Equal(t, uint64(995_035), f.px.Reserves().Native.Uint64())
	assert.Equal(t, uint64(2_010_000), f.px.Reserves().Asset.Uint64())
	assert.Equal(t, 1, f.px.Reserves().K().Cmp(k))

	_, err = f.run(func(tx *txn.Tx) error {
		_, err := f.px.AssetToNativeSwap(tx, bob, u(10_000), u(1_000_000))
		return err
	})
	require.ErrorIs(t, err, ErrSlippageExceeded)
}

func TestAssetToAssetSwap(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)
	f.initialize(t, f.py, alice, 1_000_000, 2_000_000)

	quotedNative, quotedAsset, err := f.px.QuoteAssetToAsset(u(100_000), assetY)
	require.NoError(t, err)

	var res SwapResult
	records, err := f.run(func(tx *txn.Tx) error {
		var err error
		res, err = f.px.AssetToAssetSwap(tx, bob, u(100_000), u(90_727), assetY)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(47_619), res.NativeRouted.Uint64())
	assert.Equal(t, uint64(90_727), res.AmountOut.Uint64())
	assert.Equal(t, uint64(95), res.Fee.Uint64())
	assert.Equal(t, quotedNative, res.NativeRouted)
	assert.Equal(t, quotedAsset, res.AmountOut)

	assert.Equal(t, uint64(952_381), f.px.Reserves().Native.Uint64())
	assert.Equal(t, uint64(2_100_000), f.px.Reserves().Asset.Uint64())
	assert.Equal(t, uint64(1_047_619), f.py.Reserves().Native.Uint64())
	assert.Equal(t, uint64(2_000_000-90_727), f.py.Reserves().Asset.Uint64())
	assert.Equal(t, uint64(100_000_000+90_727), f.y.BalanceOf(bob).Uint64())
	assert.Equal(t, uint64(100_000_000), f.native.BalanceOf(bob).Uint64())

	require.Len(t, records, 2)
	assert.Equal(t, model.KindNativeToAssetSwap, records[0].Kind)
	assert.Equal(t, poolY.Hex(), records[0].Pool)
	assert.Equal(t, model.KindAssetToAssetSwap, records[1].Kind)
	assert.Equal(t, poolX.Hex(), records[1].Pool)
	assert.Equal(t, model.AssetToAssetData{
		Buyer:       bob.Hex(),
		TargetAsset: assetY.Hex(),
		TargetPool:  poolY.Hex(),
		AssetIn:     "100000",
		NativeOut:   "47619",
		AssetOut:    "90727",
	}, records[1].Data)

	require.NoError(t, f.px.CheckInvariants())
	require.NoError(t, f.py.CheckInvariants())
}

func TestAssetToAssetNestedFailureRestoresSource(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)
	f.initialize(t, f.py, alice, 1_000_000, 2_000_000)
	sourceBefore, destBefore := f.px.Snapshot(), f.py.Snapshot()

	records, err := f.run(func(tx *txn.Tx) error {
		_, err := f.px.AssetToAssetSwap(tx, bob, u(100_000), u(90_728), assetY)
		return err
	})
	require.ErrorIs(t, err, ErrComposedSwapFailed)
	require.ErrorIs(t, err, ErrSlippageExceeded, "nested cause is preserved")
	assert.Equal(t, "ComposedSwapFailed", ErrorName(err))
	assert.Empty(t, records)

	assert.Equal(t, sourceBefore, f.px.Snapshot())
	assert.Equal(t, destBefore, f.py.Snapshot())
	assert.Equal(t, uint64(2_000_000), f.px.Reserves().Asset.Uint64())
	assert.Equal(t, uint64(100_000_000), f.x.BalanceOf(bob).Uint64())
	assert.Equal(t, uint64(1_000_000), f.native.BalanceOf(poolX).Uint64())
}

func TestAssetToAssetDestinationResolution(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)

	unknown := common.HexToAddress("0x000000000000000000000000000000000000cccc")
	for name, target := range map[string]common.Address{"unregistered": unknown, "self": assetX} {
		t.Run(name, func(t *testing.T) {
			_, err := f.run(func(tx *txn.Tx) error {
				_, err := f.px.AssetToAssetSwap(tx, bob, u(100_000), u(0), target)
				return err
			})
			require.ErrorIs(t, err, ErrComposedSwapFailed)
			assert.Equal(t, uint64(100_000_000), f.x.BalanceOf(bob).Uint64())
		})
	}

	t.Run("uninitialized destination", func(t *testing.T) {
		_, err := f.run(func(tx *txn.Tx) error {
			_, err := f.px.AssetToAssetSwap(tx, bob, u(100_000), u(0), assetY)
			return err
		})
		require.ErrorIs(t, err, ErrComposedSwapFailed)
		require.ErrorIs(t, err, ErrNotInitialized)
		assert.Equal(t, uint64(2_000_000), f.px.Reserves().Asset.Uint64())
	})
}

func TestSwapOverflow(t *testing.T) {
	f := newFixture(t)
	huge := new(uint256.Int).Lsh(u(1), 200)
	require.NoError(t, f.native.Mint(alice, huge))
	require.NoError(t, f.x.Mint(alice, huge))
	_, err := f.run(func(tx *txn.Tx) error {
		_, err := f.px.Initialize(tx, alice, huge, huge)
		return err
	})
	require.NoError(t, err)

	payment := new(uint256.Int).Lsh(u(1), 90)
	require.NoError(t, f.native.Mint(bob, payment))
	_, err = f.run(func(tx *txn.Tx) error {
		_, err := f.px.NativeToAssetSwap(tx, bob, bob, payment, u(0))
		return err
	})
	require.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, huge, f.px.Reserves().Native)
}

func TestQuotesMatchSwaps(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 3_333_333, 7_777_777)

	out, fee, err := f.px.QuoteNativeToAsset(u(123_456))
	require.NoError(t, err)
	res, err := f.px.NativeToAssetSwap(f.tx(), bob, bob, u(123_456), u(0))
	require.NoError(t, err)
	assert.Equal(t, out, res.AmountOut)
	assert.Equal(t, fee, res.Fee)

	out, fee, err = f.px.QuoteAssetToNative(u(654_321))
	require.NoError(t, err)
	res, err = f.px.AssetToNativeSwap(f.tx(), bob, u(654_321), u(0))
	require.NoError(t, err)
	assert.Equal(t, out, res.AmountOut)
	assert.Equal(t, fee, res.Fee)
}

func TestSnapshotRestore(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, f.px, alice, 1_000_000, 2_000_000)
	_, err := f.run(func(tx *txn.Tx) error {
		_, err := f.px.Invest(tx, bob, u(250_000), u(0))
		return err
	})
	require.NoError(t, err)
	snap := f.px.Snapshot()

	restored, err := New(Config{Address: poolX, Asset: assetX, Assets: f.x, Native: f.native}, nil)
	require.NoError(t, err)
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, snap, restored.Snapshot())
	assert.Equal(t, uint64(250), restored.SharesOf(bob).Uint64())

	snap.TotalShares = "1"
	require.ErrorIs(t, restored.Restore(snap), ErrInvariantViolated)
}

func TestErrorNameOfForeignError(t *testing.T) {
	assert.Equal(t, "", ErrorName(nil))
	assert.Equal(t, "", ErrorName(errors.New("boom")))
	assert.Equal(t, "Overflow", ErrorName(ErrOverflow.Wrap("x")))
}
