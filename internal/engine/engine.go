package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityEngine/internal/ledger"
	"liquidityEngine/internal/model"
	"liquidityEngine/internal/pool"
	"liquidityEngine/internal/registry"
	"liquidityEngine/internal/storage"
	"liquidityEngine/internal/txn"
)

// Config configures an Engine.
type Config struct {
	RegistryAddress common.Address
	NativeSymbol    string
	Clock           func() time.Time
	Sink            storage.RecordSink
}

// Engine hosts the native ledger, the asset ledgers and the registry, and
// runs each pool operation as one serialized transaction.
type Engine struct {
	mu       sync.Mutex
	registry *registry.Registry
	native   *ledger.MemoryLedger
	assets   map[common.Address]*ledger.MemoryLedger
	sink     storage.RecordSink
	clock    func() time.Time
	txSeq    uint64
	block    uint64
	logger   *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NativeSymbol == "" {
		cfg.NativeSymbol = "NATIVE"
	}
	native := ledger.NewMemoryLedger(common.Address{}, cfg.NativeSymbol, logger.Named("native"))
	reg, err := registry.New(cfg.RegistryAddress, native, logger.Named("registry"))
	if err != nil {
		return nil, fmt.Errorf("create registry: %w", err)
	}
	return &Engine{
		registry: reg,
		native:   native,
		assets:   make(map[common.Address]*ledger.MemoryLedger),
		sink:     cfg.Sink,
		clock:    cfg.Clock,
		logger:   logger,
	}, nil
}

func (e *Engine) Registry() *registry.Registry { return e.registry }
func (e *Engine) Native() *ledger.MemoryLedger  { return e.native }

// RegisterAsset creates the ledger for asset.
func (e *Engine) RegisterAsset(asset common.Address, symbol string) (*ledger.MemoryLedger, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registerAsset(asset, symbol)
}

func (e *Engine) registerAsset(asset common.Address, symbol string) (*ledger.MemoryLedger, error) {
	if asset == (common.Address{}) {
		return nil, fmt.Errorf("asset address is empty")
	}
	if _, ok := e.assets[asset]; ok {
		return nil, fmt.Errorf("asset %s already registered", asset.Hex())
	}
	l := ledger.NewMemoryLedger(asset, symbol, e.logger.Named(symbol))
	e.assets[asset] = l
	return l, nil
}

// Asset returns the ledger of a registered asset.
func (e *Engine) Asset(asset common.Address) (*ledger.MemoryLedger, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.asset(asset)
}

func (e *Engine) asset(asset common.Address) (*ledger.MemoryLedger, error) {
	l, ok := e.assets[asset]
	if !ok {
		return nil, fmt.Errorf("asset %s is not registered", asset.Hex())
	}
	return l, nil
}

// CreatePool deploys the pool trading asset through the registry.
func (e *Engine) CreatePool(asset common.Address) (*pool.Pool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, err := e.asset(asset)
	if err != nil {
		return nil, err
	}
	return e.registry.CreatePool(asset, l)
}

func (e *Engine) Pool(asset common.Address) (*pool.Pool, error) {
	p, ok := e.registry.PoolFor(asset)
	if !ok {
		return nil, registry.ErrPoolNotFound.Wrapf("asset %s", asset.Hex())
	}
	return p, nil
}

// FundNative mints native to account outside of any operation.
func (e *Engine) FundNative(account common.Address, amount *uint256.Int) error {
	return e.native.Mint(account, amount)
}

func (e *Engine) FundAsset(asset, account common.Address, amount *uint256.Int) error {
	l, err := e.Asset(asset)
	if err != nil {
		return err
	}
	return l.Mint(account, amount)
}

// Approve lets spender pull amount of asset from owner.
func (e *Engine) Approve(asset, owner, spender common.Address, amount *uint256.Int) error {
	l, err := e.Asset(asset)
	if err != nil {
		return err
	}
	l.Approve(owner, spender, amount)
	return nil
}

// Initialize seeds the pool of asset.
func (e *Engine) Initialize(caller, asset common.Address, nativePayment, assetAmount *uint256.Int) (pool.LiquidityResult, error) {
	var res pool.LiquidityResult
	err := e.execute("initialize", asset, func(tx *txn.Tx, p *pool.Pool) error {
		var err error
		res, err = p.Initialize(tx, caller, nativePayment, assetAmount)
		return err
	})
	return res, err
}

func (e *Engine) Invest(caller, asset common.Address, nativePayment, minShares *uint256.Int) (pool.LiquidityResult, error) {
	var res pool.LiquidityResult
	err := e.execute("invest", asset, func(tx *txn.Tx, p *pool.Pool) error {
		var err error
		res, err = p.Invest(tx, caller, nativePayment, minShares)
		return err
	})
	return res, err
}

func (e *Engine) Divest(caller, asset common.Address, nativeAmount, minAsset *uint256.Int) (pool.LiquidityResult, error) {
	var res pool.LiquidityResult
	err := e.execute("divest", asset, func(tx *txn.Tx, p *pool.Pool) error {
		var err error
		res, err = p.Divest(tx, caller, nativeAmount, minAsset)
		return err
	})
	return res, err
}

func (e *Engine) NativeToAssetSwap(caller, recipient, asset common.Address, payment, minAssetOut *uint256.Int) (pool.SwapResult, error) {
	var res pool.SwapResult
	err := e.execute("native to asset swap", asset, func(tx *txn.Tx, p *pool.Pool) error {
		var err error
		res, err = p.NativeToAssetSwap(tx, caller, recipient, payment, minAssetOut)
		return err
	})
	return res, err
}

func (e *Engine) AssetToNativeSwap(caller, asset common.Address, assetAmount, minNativeOut *uint256.Int) (pool.SwapResult, error) {
	var res pool.SwapResult
	err := e.execute("asset to native swap", asset, func(tx *txn.Tx, p *pool.Pool) error {
		var err error
		res, err = p.AssetToNativeSwap(tx, caller, assetAmount, minNativeOut)
		return err
	})
	return res, err
}

// AssetToAssetSwap sells asset for targetAsset through both pools.
func (e *Engine) AssetToAssetSwap(caller, asset, targetAsset common.Address, assetAmount, minTargetOut *uint256.Int) (pool.SwapResult, error) {
	var res pool.SwapResult
	err := e.execute("asset to asset swap", asset, func(tx *txn.Tx, p *pool.Pool) error {
		var err error
		res, err = p.AssetToAssetSwap(tx, caller, assetAmount, minTargetOut, targetAsset)
		return err
	})
	return res, err
}

// execute runs fn as one transaction. Any error or panic rolls back every
// ledger and pool change made under it; records are published only on commit.
func (e *Engine) execute(op string, asset common.Address, fn func(tx *txn.Tx, p *pool.Pool) error) (err error) {
	p, ok := e.registry.PoolFor(asset)
	if !ok {
		return registry.ErrPoolNotFound.Wrapf("asset %s", asset.Hex())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.txSeq++
	e.block++
	tx := txn.New(e.txSeq, e.block, e.clock())

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", op, r)
		}
		if err != nil && !tx.Closed() {
			tx.Rollback()
			e.logger.Warn("operation rolled back",
				zap.String("op", op),
				zap.Uint64("tx", tx.ID()),
				zap.String("pool", p.Address().Hex()),
				zap.Error(err),
			)
		}
	}()

	if err = fn(tx, p); err != nil {
		return err
	}

	records, err := tx.Commit()
	if err != nil {
		return err
	}
	e.logger.Debug("operation committed",
		zap.String("op", op),
		zap.Uint64("tx", tx.ID()),
		zap.Int("records", len(records)),
	)
	if e.sink != nil {
		// State is already committed; a sink failure only loses the records.
		if serr := e.sink.PutRecordBatch(records); serr != nil {
			e.logger.Error("publish records failed", zap.Uint64("tx", tx.ID()), zap.Error(serr))
			return fmt.Errorf("publish records: %w", serr)
		}
	}
	return nil
}

// CheckInvariants verifies every pool.
func (e *Engine) CheckInvariants() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.registry.Pools() {
		if err := p.CheckInvariants(); err != nil {
			return fmt.Errorf("pool %s: %w", p.Address().Hex(), err)
		}
	}
	return nil
}

// Snapshot captures ledgers, pools and counters.
func (e *Engine) Snapshot() model.EngineSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := model.EngineSnapshot{
		Registry: e.registry.Address().Hex(),
		TxSeq:    e.txSeq,
		Block:    e.block,
		Native:   e.native.Snapshot(),
		TakenAt:  e.clock().UTC().Format(time.RFC3339Nano),
	}
	for _, l := range e.assets {
		snap.Assets = append(snap.Assets, l.Snapshot())
	}
	sort.Slice(snap.Assets, func(i, j int) bool { return snap.Assets[i].Asset < snap.Assets[j].Asset })
	for _, p := range e.registry.Pools() {
		snap.Pools = append(snap.Pools, p.Snapshot())
	}
	return snap
}

// Restore loads snap into a freshly created engine.
func (e *Engine) Restore(snap model.EngineSnapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.assets) != 0 || e.registry.Len() != 0 {
		return fmt.Errorf("restore requires an empty engine")
	}
	if snap.Registry != "" && common.HexToAddress(snap.Registry) != e.registry.Address() {
		return fmt.Errorf("snapshot registry %s does not match %s", snap.Registry, e.registry.Address().Hex())
	}
	if err := e.native.Restore(snap.Native); err != nil {
		return err
	}
	for _, ls := range snap.Assets {
		l, err := e.registerAsset(common.HexToAddress(ls.Asset), ls.Symbol)
		if err != nil {
			return err
		}
		if err := l.Restore(ls); err != nil {
			return err
		}
	}
	for _, ps := range snap.Pools {
		asset := common.HexToAddress(ps.Asset)
		l, err := e.asset(asset)
		if err != nil {
			return fmt.Errorf("restore pool %s: %w", ps.Address, err)
		}
		p, err := e.registry.CreatePool(asset, l)
		if err != nil {
			return err
		}
		if err := p.Restore(ps); err != nil {
			return err
		}
	}
	e.txSeq = snap.TxSeq
	e.block = snap.Block
	e.logger.Info("engine restored",
		zap.Int("assets", len(snap.Assets)),
		zap.Int("pools", len(snap.Pools)),
		zap.Uint64("tx_seq", snap.TxSeq),
	)
	return nil
}
