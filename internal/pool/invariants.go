package pool

// CheckInvariants verifies the share ledger sums to its total, that shares
// exist exactly when the pool is initialized, and that the ledgers hold at
// least the recorded reserves.
func (p *Pool) CheckInvariants() error {
	total := p.shares.Total()
	if sum := p.shares.Sum(); sum.Cmp(total.ToBig()) != 0 {
		return ErrInvariantViolated.Wrapf("share balances sum to %s, total is %s", sum, total.Dec())
	}
	if p.reserves.Initialized() == total.IsZero() {
		return ErrInvariantViolated.Wrapf("initialized=%t with %s shares outstanding", p.reserves.Initialized(), total.Dec())
	}
	if held := p.native.BalanceOf(p.address); held.Lt(p.reserves.Native) {
		return ErrInvariantViolated.Wrapf("native ledger holds %s, reserve is %s", held.Dec(), p.reserves.Native.Dec())
	}
	if held := p.assets.BalanceOf(p.address); held.Lt(p.reserves.Asset) {
		return ErrInvariantViolated.Wrapf("asset ledger holds %s, reserve is %s", held.Dec(), p.reserves.Asset.Dec())
	}
	return nil
}
