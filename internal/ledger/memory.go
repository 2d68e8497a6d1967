package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityEngine/internal/model"
	"liquidityEngine/internal/txn"
)

// MemoryLedger is an in-process ledger usable as either an AssetLedger or a
// NativeLedger. Transfers made under a transaction are undone when it rolls back.
type MemoryLedger struct {
	mu         sync.RWMutex
	asset      common.Address
	symbol     string
	balances   map[common.Address]*uint256.Int
	allowances map[common.Address]map[common.Address]*uint256.Int
	frozen     map[common.Address]bool
	supply     *uint256.Int
	logger     *zap.Logger
}

func NewMemoryLedger(asset common.Address, symbol string, logger *zap.Logger) *MemoryLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryLedger{
		asset:      asset,
		symbol:     symbol,
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[common.Address]map[common.Address]*uint256.Int),
		frozen:     make(map[common.Address]bool),
		supply:     new(uint256.Int),
		logger:     logger,
	}
}

func (l *MemoryLedger) Asset() common.Address { return l.asset }
func (l *MemoryLedger) Symbol() string        { return l.symbol }

func (l *MemoryLedger) BalanceOf(account common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if bal, ok := l.balances[account]; ok {
		return bal.Clone()
	}
	return new(uint256.Int)
}

func (l *MemoryLedger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.supply.Clone()
}

// Mint credits account outside of any transaction.
func (l *MemoryLedger) Mint(account common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	supply, overflow := new(uint256.Int).AddOverflow(l.supply, amount)
	if overflow {
		return fmt.Errorf("mint %s: total supply overflow", l.symbol)
	}
	l.supply = supply
	l.credit(account, amount)
	return nil
}

// Approve sets the amount spender may move out of owner's balance.
// The maximum uint256 value is an unlimited allowance.
func (l *MemoryLedger) Approve(owner, spender common.Address, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	byOwner, ok := l.allowances[owner]
	if !ok {
		byOwner = make(map[common.Address]*uint256.Int)
		l.allowances[owner] = byOwner
	}
	if amount.IsZero() {
		delete(byOwner, spender)
		return
	}
	byOwner[spender] = amount.Clone()
}

func (l *MemoryLedger) Allowance(owner, spender common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if a, ok := l.allowances[owner][spender]; ok {
		return a.Clone()
	}
	return new(uint256.Int)
}

// Freeze makes every transfer touching account fail until Unfreeze.
func (l *MemoryLedger) Freeze(account common.Address) {
	l.mu.Lock()
	l.frozen[account] = true
	l.mu.Unlock()
}

func (l *MemoryLedger) Unfreeze(account common.Address) {
	l.mu.Lock()
	delete(l.frozen, account)
	l.mu.Unlock()
}

func (l *MemoryLedger) Transfer(tx *txn.Tx, from, to common.Address, amount *uint256.Int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.movable(from, to, amount) {
		return false
	}
	l.move(from, to, amount)
	l.journal(tx, from, to, amount.Clone(), nil, common.Address{})
	return true
}

func (l *MemoryLedger) TransferFrom(tx *txn.Tx, spender, from, to common.Address, amount *uint256.Int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.movable(from, to, amount) {
		return false
	}
	var spent *uint256.Int
	if spender != from {
		allowed, ok := l.allowances[from][spender]
		if !ok || allowed.Lt(amount) {
			l.logger.Debug("allowance exceeded",
				zap.String("symbol", l.symbol),
				zap.String("owner", from.Hex()),
				zap.String("spender", spender.Hex()),
				zap.String("amount", amount.Dec()),
			)
			return false
		}
		if !isUnlimited(allowed) {
			allowed.Sub(allowed, amount)
			spent = amount.Clone()
		}
	}
	l.move(from, to, amount)
	l.journal(tx, from, to, amount.Clone(), spent, spender)
	return true
}

func (l *MemoryLedger) movable(from, to common.Address, amount *uint256.Int) bool {
	if amount == nil {
		return false
	}
	if l.frozen[from] || l.frozen[to] {
		l.logger.Debug("transfer on frozen account",
			zap.String("symbol", l.symbol),
			zap.String("from", from.Hex()),
			zap.String("to", to.Hex()),
		)
		return false
	}
	bal, ok := l.balances[from]
	if amount.IsZero() {
		return true
	}
	return ok && !bal.Lt(amount)
}

func (l *MemoryLedger) journal(tx *txn.Tx, from, to common.Address, amount, spent *uint256.Int, spender common.Address) {
	if tx == nil {
		return
	}
	tx.OnRollback(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.move(to, from, amount)
		if spent != nil {
			byOwner, ok := l.allowances[from]
			if !ok {
				byOwner = make(map[common.Address]*uint256.Int)
				l.allowances[from] = byOwner
			}
			if cur, ok := byOwner[spender]; ok {
				cur.Add(cur, spent)
			} else {
				byOwner[spender] = spent.Clone()
			}
		}
	})
}

func (l *MemoryLedger) move(from, to common.Address, amount *uint256.Int) {
	if amount.IsZero() || from == to {
		return
	}
	l.debit(from, amount)
	l.credit(to, amount)
}

func (l *MemoryLedger) credit(account common.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	if bal, ok := l.balances[account]; ok {
		bal.Add(bal, amount)
		return
	}
	l.balances[account] = amount.Clone()
}

func (l *MemoryLedger) debit(account common.Address, amount *uint256.Int) {
	bal := l.balances[account]
	bal.Sub(bal, amount)
	if bal.IsZero() {
		delete(l.balances, account)
	}
}

func isUnlimited(v *uint256.Int) bool {
	return v.Eq(maxUint256)
}

var maxUint256 = new(uint256.Int).SetAllOne()

// Snapshot captures balances and allowances.
func (l *MemoryLedger) Snapshot() model.LedgerSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	snap := model.LedgerSnapshot{
		Asset:    l.asset.Hex(),
		Symbol:   l.symbol,
		Balances: make(map[string]string, len(l.balances)),
	}
	for acct, bal := range l.balances {
		snap.Balances[acct.Hex()] = bal.Dec()
	}
	for owner, bySpender := range l.allowances {
		for spender, amount := range bySpender {
			snap.Allowances = append(snap.Allowances, model.AllowanceSnapshot{
				Owner:   owner.Hex(),
				Spender: spender.Hex(),
				Amount:  amount.Dec(),
			})
		}
	}
	sort.Slice(snap.Allowances, func(i, j int) bool {
		if snap.Allowances[i].Owner != snap.Allowances[j].Owner {
			return snap.Allowances[i].Owner < snap.Allowances[j].Owner
		}
		return snap.Allowances[i].Spender < snap.Allowances[j].Spender
	})
	return snap
}

// Restore replaces the ledger contents with snap.
func (l *MemoryLedger) Restore(snap model.LedgerSnapshot) error {
	balances := make(map[common.Address]*uint256.Int, len(snap.Balances))
	supply := new(uint256.Int)
	for acct, raw := range snap.Balances {
		if !common.IsHexAddress(acct) {
			return fmt.Errorf("restore %s: invalid account %q", l.symbol, acct)
		}
		bal, err := uint256.FromDecimal(raw)
		if err != nil {
			return fmt.Errorf("restore %s balance of %s: %w", l.symbol, acct, err)
		}
		if bal.IsZero() {
			continue
		}
		var overflow bool
		supply, overflow = new(uint256.Int).AddOverflow(supply, bal)
		if overflow {
			return fmt.Errorf("restore %s: total supply overflow", l.symbol)
		}
		balances[common.HexToAddress(acct)] = bal
	}
	allowances := make(map[common.Address]map[common.Address]*uint256.Int)
	for _, a := range snap.Allowances {
		amount, err := uint256.FromDecimal(a.Amount)
		if err != nil {
			return fmt.Errorf("restore %s allowance: %w", l.symbol, err)
		}
		owner := common.HexToAddress(a.Owner)
		if _, ok := allowances[owner]; !ok {
			allowances[owner] = make(map[common.Address]*uint256.Int)
		}
		allowances[owner][common.HexToAddress(a.Spender)] = amount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = balances
	l.allowances = allowances
	l.supply = supply
	if snap.Symbol != "" {
		l.symbol = snap.Symbol
	}
	return nil
}
