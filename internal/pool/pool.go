package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityEngine/internal/ledger"
	"liquidityEngine/internal/model"
	"liquidityEngine/internal/txn"
)

// Counterparty is the destination pool of a composed swap.
type Counterparty interface {
	Address() common.Address
	Asset() common.Address
	NativeToAssetSwap(tx *txn.Tx, caller, recipient common.Address, payment, minAssetOut *uint256.Int) (SwapResult, error)
	QuoteNativeToAsset(payment *uint256.Int) (out, fee *uint256.Int, err error)
}

// Resolver finds the pool trading a given asset.
type Resolver interface {
	ResolvePool(asset common.Address) (Counterparty, bool)
}

// Config wires a pool to its identity and collaborators.
type Config struct {
	Address  common.Address
	Asset    common.Address
	Assets   ledger.AssetLedger
	Native   ledger.NativeLedger
	Resolver Resolver
}

// LiquidityResult reports the amounts moved by initialize, invest and divest.
type LiquidityResult struct {
	Shares       *uint256.Int
	NativeAmount *uint256.Int
	AssetAmount  *uint256.Int
}

// SwapResult reports the amounts moved by a swap. NativeRouted is set only
// for composed swaps.
type SwapResult struct {
	AmountIn     *uint256.Int
	AmountOut    *uint256.Int
	Fee          *uint256.Int
	NativeRouted *uint256.Int
}

// Pool is a constant-product pool between the native asset and one asset.
// It is not safe for concurrent use; callers serialize top-level operations.
type Pool struct {
	address  common.Address
	asset    common.Address
	assets   ledger.AssetLedger
	native   ledger.NativeLedger
	resolver Resolver

	reserves Reserves
	shares   *ShareLedger

	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Pool, error) {
	if cfg.Assets == nil {
		return nil, fmt.Errorf("asset ledger is nil")
	}
	if cfg.Native == nil {
		return nil, fmt.Errorf("native ledger is nil")
	}
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("pool address is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		address:  cfg.Address,
		asset:    cfg.Asset,
		assets:   cfg.Assets,
		native:   cfg.Native,
		resolver: cfg.Resolver,
		reserves: emptyReserves(),
		shares:   NewShareLedger(),
		logger:   logger.With(zap.String("pool", cfg.Address.Hex())),
	}, nil
}

func (p *Pool) Address() common.Address { return p.address }
func (p *Pool) Asset() common.Address   { return p.asset }

// Reserves returns a copy of the current balances.
func (p *Pool) Reserves() Reserves { return p.reserves.Clone() }

func (p *Pool) Initialized() bool { return p.reserves.Initialized() }

func (p *Pool) SharesOf(account common.Address) *uint256.Int { return p.shares.BalanceOf(account) }

func (p *Pool) TotalShares() *uint256.Int { return p.shares.Total() }

// setReserves replaces the balances and journals the previous ones.
func (p *Pool) setReserves(tx *txn.Tx, next Reserves) {
	prev := p.reserves
	p.reserves = next
	tx.OnRollback(func() { p.reserves = prev })
}

func (p *Pool) mintShares(tx *txn.Tx, account common.Address, amount *uint256.Int) error {
	prevBal, prevTotal := p.shares.BalanceOf(account), p.shares.Total()
	if err := p.shares.Mint(account, amount); err != nil {
		return err
	}
	tx.OnRollback(func() { p.shares.reset(account, prevBal, prevTotal) })
	return nil
}

func (p *Pool) burnShares(tx *txn.Tx, account common.Address, amount *uint256.Int) error {
	prevBal, prevTotal := p.shares.BalanceOf(account), p.shares.Total()
	if err := p.shares.Burn(account, amount); err != nil {
		return err
	}
	tx.OnRollback(func() { p.shares.reset(account, prevBal, prevTotal) })
	return nil
}

func (p *Pool) pullNative(tx *txn.Tx, from common.Address, amount *uint256.Int) error {
	if !p.native.Transfer(tx, from, p.address, amount) {
		return ErrTransferFailed.Wrapf("native %s from %s", amount.Dec(), from.Hex())
	}
	return nil
}

func (p *Pool) pushNative(tx *txn.Tx, to common.Address, amount *uint256.Int) error {
	if !p.native.Transfer(tx, p.address, to, amount) {
		return ErrTransferFailed.Wrapf("native %s to %s", amount.Dec(), to.Hex())
	}
	return nil
}

func (p *Pool) pullAsset(tx *txn.Tx, from common.Address, amount *uint256.Int) error {
	if !p.assets.TransferFrom(tx, p.address, from, p.address, amount) {
		return ErrTransferFailed.Wrapf("asset %s from %s", amount.Dec(), from.Hex())
	}
	return nil
}

func (p *Pool) pushAsset(tx *txn.Tx, to common.Address, amount *uint256.Int) error {
	if !p.assets.Transfer(tx, p.address, to, amount) {
		return ErrTransferFailed.Wrapf("asset %s to %s", amount.Dec(), to.Hex())
	}
	return nil
}

func (p *Pool) emit(tx *txn.Tx, kind model.RecordKind, data interface{}) {
	tx.Emit(model.Record{
		Pool:  p.address.Hex(),
		Asset: p.asset.Hex(),
		Kind:  kind,
		Data:  data,
	})
}

func requirePositive(name string, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount.Wrapf("%s must be positive", name)
	}
	return nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

// Snapshot captures reserves and shares.
func (p *Pool) Snapshot() model.PoolSnapshot {
	snap := model.PoolSnapshot{
		Address:       p.address.Hex(),
		Asset:         p.asset.Hex(),
		NativeReserve: p.reserves.Native.Dec(),
		AssetReserve:  p.reserves.Asset.Dec(),
		TotalShares:   p.shares.total.Dec(),
		Shares:        make(map[string]string, len(p.shares.balances)),
	}
	for acct, bal := range p.shares.balances {
		snap.Shares[acct.Hex()] = bal.Dec()
	}
	return snap
}

// Restore replaces reserves and shares with snap.
func (p *Pool) Restore(snap model.PoolSnapshot) error {
	if snap.Address != "" && common.HexToAddress(snap.Address) != p.address {
		return fmt.Errorf("restore pool %s: snapshot belongs to %s", p.address.Hex(), snap.Address)
	}
	native, err := parseAmount(snap.NativeReserve)
	if err != nil {
		return fmt.Errorf("restore native reserve: %w", err)
	}
	asset, err := parseAmount(snap.AssetReserve)
	if err != nil {
		return fmt.Errorf("restore asset reserve: %w", err)
	}
	total, err := parseAmount(snap.TotalShares)
	if err != nil {
		return fmt.Errorf("restore total shares: %w", err)
	}
	shares := NewShareLedger()
	for acct, raw := range snap.Shares {
		bal, err := parseAmount(raw)
		if err != nil {
			return fmt.Errorf("restore shares of %s: %w", acct, err)
		}
		shares.put(common.HexToAddress(acct), bal)
	}
	shares.total = total
	if shares.Sum().Cmp(total.ToBig()) != 0 {
		return ErrInvariantViolated.Wrapf("restore: share balances do not sum to %s", total.Dec())
	}

	p.reserves = Reserves{Native: native, Asset: asset}
	p.shares = shares
	return nil
}

func parseAmount(raw string) (*uint256.Int, error) {
	if raw == "" {
		return new(uint256.Int), nil
	}
	return uint256.FromDecimal(raw)
}
