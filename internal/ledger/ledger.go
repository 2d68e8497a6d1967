package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"liquidityEngine/internal/txn"
)

// AssetLedger is the fungible asset ledger a pool trades against.
// A false return is a hard failure and must abort the operation.
type AssetLedger interface {
	Transfer(tx *txn.Tx, sender, to common.Address, amount *uint256.Int) bool
	TransferFrom(tx *txn.Tx, spender, from, to common.Address, amount *uint256.Int) bool
	BalanceOf(account common.Address) *uint256.Int
}

// NativeLedger moves the native asset of the hosting environment.
type NativeLedger interface {
	Transfer(tx *txn.Tx, from, to common.Address, amount *uint256.Int) bool
	BalanceOf(account common.Address) *uint256.Int
}
