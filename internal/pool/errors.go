package pool

import (
	"cosmossdk.io/errors"
)

// ModuleName is the codespace of pool failures.
const ModuleName = "pool"

// Pool sentinel errors
var (
	ErrInsufficientLiquidity = errors.Register(ModuleName, 1, "insufficient liquidity")
	ErrAlreadyInitialized    = errors.Register(ModuleName, 2, "pool already initialized")
	ErrNotInitialized        = errors.Register(ModuleName, 3, "pool not initialized")
	ErrSlippageExceeded      = errors.Register(ModuleName, 4, "slippage exceeded")
	ErrInsufficientShares    = errors.Register(ModuleName, 5, "insufficient shares")
	ErrInsufficientVolume    = errors.Register(ModuleName, 6, "output exceeds reserve")
	ErrTransferFailed        = errors.Register(ModuleName, 7, "ledger transfer failed")
	ErrComposedSwapFailed    = errors.Register(ModuleName, 8, "composed swap failed")
	ErrOverflow              = errors.Register(ModuleName, 9, "arithmetic overflow")
	ErrInvalidAmount         = errors.Register(ModuleName, 10, "invalid amount")
	ErrInvariantViolated     = errors.Register(ModuleName, 11, "pool invariant violated")
)

var sentinels = []*errors.Error{
	ErrInsufficientLiquidity,
	ErrAlreadyInitialized,
	ErrNotInitialized,
	ErrSlippageExceeded,
	ErrInsufficientShares,
	ErrInsufficientVolume,
	ErrTransferFailed,
	ErrComposedSwapFailed,
	ErrOverflow,
	ErrInvalidAmount,
	ErrInvariantViolated,
}

// ErrorName maps err to the short name of the first pool failure it wraps,
// e.g. "SlippageExceeded". It returns "" for nil and foreign errors.
func ErrorName(err error) string {
	if err == nil {
		return ""
	}
	// A composed failure also wraps the nested cause; report the outer one.
	if errors.IsOf(err, ErrComposedSwapFailed) {
		return names[ErrComposedSwapFailed.ABCICode()]
	}
	for _, s := range sentinels {
		if errors.IsOf(err, s) {
			return names[s.ABCICode()]
		}
	}
	return ""
}

var names = map[uint32]string{
	1:  "InsufficientLiquidity",
	2:  "AlreadyInitialized",
	3:  "NotInitialized",
	4:  "SlippageExceeded",
	5:  "InsufficientShares",
	6:  "InsufficientVolume",
	7:  "TransferFailed",
	8:  "ComposedSwapFailed",
	9:  "Overflow",
	10: "InvalidAmount",
	11: "InvariantViolated",
}
