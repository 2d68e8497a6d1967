package pool

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Reserves holds the two balances of a pool.
type Reserves struct {
	Native *uint256.Int
	Asset  *uint256.Int
}

func emptyReserves() Reserves {
	return Reserves{Native: new(uint256.Int), Asset: new(uint256.Int)}
}

// Initialized reports whether both balances are non-zero.
func (r Reserves) Initialized() bool {
	return !r.Native.IsZero() && !r.Asset.IsZero()
}

func (r Reserves) Clone() Reserves {
	return Reserves{Native: r.Native.Clone(), Asset: r.Asset.Clone()}
}

// K returns native*asset.
func (r Reserves) K() *big.Int {
	return product(r.Native, r.Asset)
}

// ShareLedger tracks liquidity shares per participant.
// Zero balances are not stored.
type ShareLedger struct {
	balances map[common.Address]*uint256.Int
	total    *uint256.Int
}

func NewShareLedger() *ShareLedger {
	return &ShareLedger{
		balances: make(map[common.Address]*uint256.Int),
		total:    new(uint256.Int),
	}
}

func (s *ShareLedger) BalanceOf(account common.Address) *uint256.Int {
	if bal, ok := s.balances[account]; ok {
		return bal.Clone()
	}
	return new(uint256.Int)
}

func (s *ShareLedger) Total() *uint256.Int {
	return s.total.Clone()
}

// Mint credits account and the total.
func (s *ShareLedger) Mint(account common.Address, amount *uint256.Int) error {
	total, err := checkedAdd(s.total, amount)
	if err != nil {
		return err
	}
	bal, err := checkedAdd(s.BalanceOf(account), amount)
	if err != nil {
		return err
	}
	s.total = total
	s.put(account, bal)
	return nil
}

// Burn debits account and the total.
func (s *ShareLedger) Burn(account common.Address, amount *uint256.Int) error {
	bal := s.BalanceOf(account)
	if bal.Lt(amount) {
		return ErrInsufficientShares.Wrapf("%s holds %s, needs %s", account.Hex(), bal.Dec(), amount.Dec())
	}
	total, err := checkedSub(s.total, amount)
	if err != nil {
		return err
	}
	s.total = total
	s.put(account, bal.Sub(bal, amount))
	return nil
}

// Holders returns participants with a non-zero balance in address order.
func (s *ShareLedger) Holders() []common.Address {
	out := make([]common.Address, 0, len(s.balances))
	for acct := range s.balances {
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

// Sum adds up the individual balances.
func (s *ShareLedger) Sum() *big.Int {
	sum := new(big.Int)
	for _, bal := range s.balances {
		sum.Add(sum, bal.ToBig())
	}
	return sum
}

func (s *ShareLedger) put(account common.Address, bal *uint256.Int) {
	if bal.IsZero() {
		delete(s.balances, account)
		return
	}
	s.balances[account] = bal
}

// reset restores one account and the total, used to undo Mint/Burn.
func (s *ShareLedger) reset(account common.Address, bal, total *uint256.Int) {
	s.put(account, bal.Clone())
	s.total = total.Clone()
}
