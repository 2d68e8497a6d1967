package registry

import (
	"fmt"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"liquidityEngine/internal/ledger"
	"liquidityEngine/internal/pool"
)

// ModuleName is the codespace of registry failures.
const ModuleName = "registry"

var (
	ErrPoolExists   = errorsmod.Register(ModuleName, 1, "pool already exists for asset")
	ErrInvalidAsset = errorsmod.Register(ModuleName, 2, "invalid asset")
	ErrPoolNotFound = errorsmod.Register(ModuleName, 3, "pool not found")
)

// Registry keeps the one-to-one mapping between assets and their pools and
// creates pools at addresses derived from its own address and a nonce.
type Registry struct {
	mu      sync.RWMutex
	address common.Address
	nonce   uint64
	native  ledger.NativeLedger
	byAsset map[common.Address]*pool.Pool
	byPool  map[common.Address]*pool.Pool
	order   []*pool.Pool
	logger  *zap.Logger
}

func New(address common.Address, native ledger.NativeLedger, logger *zap.Logger) (*Registry, error) {
	if native == nil {
		return nil, fmt.Errorf("native ledger is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		address: address,
		native:  native,
		byAsset: make(map[common.Address]*pool.Pool),
		byPool:  make(map[common.Address]*pool.Pool),
		logger:  logger,
	}, nil
}

func (r *Registry) Address() common.Address { return r.address }

// CreatePool deploys the pool for asset. Each asset gets at most one pool.
func (r *Registry) CreatePool(asset common.Address, assets ledger.AssetLedger) (*pool.Pool, error) {
	if asset == (common.Address{}) {
		return nil, ErrInvalidAsset.Wrap("zero address")
	}
	if assets == nil {
		return nil, ErrInvalidAsset.Wrapf("no ledger for %s", asset.Hex())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byAsset[asset]; ok {
		return nil, ErrPoolExists.Wrapf("%s trades in %s", asset.Hex(), existing.Address().Hex())
	}

	address := crypto.CreateAddress(r.address, r.nonce)
	p, err := pool.New(pool.Config{
		Address:  address,
		Asset:    asset,
		Assets:   assets,
		Native:   r.native,
		Resolver: r,
	}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("create pool for %s: %w", asset.Hex(), err)
	}
	r.nonce++
	r.byAsset[asset] = p
	r.byPool[address] = p
	r.order = append(r.order, p)

	r.logger.Info("pool created",
		zap.String("asset", asset.Hex()),
		zap.String("pool", address.Hex()),
	)
	return p, nil
}

// ResolvePool implements pool.Resolver.
func (r *Registry) ResolvePool(asset common.Address) (pool.Counterparty, bool) {
	p, ok := r.PoolFor(asset)
	if !ok {
		return nil, false
	}
	return p, true
}

func (r *Registry) PoolFor(asset common.Address) (*pool.Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byAsset[asset]
	return p, ok
}

// Pool looks a pool up by its own address.
func (r *Registry) Pool(address common.Address) (*pool.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byPool[address]
	if !ok {
		return nil, ErrPoolNotFound.Wrap(address.Hex())
	}
	return p, nil
}

func (r *Registry) AssetFor(poolAddress common.Address) (common.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byPool[poolAddress]
	if !ok {
		return common.Address{}, false
	}
	return p.Asset(), true
}

// Pools returns pools in creation order.
func (r *Registry) Pools() []*pool.Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*pool.Pool, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
