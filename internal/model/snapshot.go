package model

// PoolSnapshot captures the reserves and share ledger of a pool.
type PoolSnapshot struct {
	Address       string            `json:"address"`
	Asset         string            `json:"asset"`
	NativeReserve string            `json:"native_reserve"`
	AssetReserve  string            `json:"asset_reserve"`
	TotalShares   string            `json:"total_shares"`
	Shares        map[string]string `json:"shares"`
}

// LedgerSnapshot captures balances and allowances of one ledger.
type LedgerSnapshot struct {
	Asset      string              `json:"asset"`
	Symbol     string              `json:"symbol"`
	Balances   map[string]string   `json:"balances"`
	Allowances []AllowanceSnapshot `json:"allowances,omitempty"`
}

// AllowanceSnapshot is one owner/spender allowance.
type AllowanceSnapshot struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

// EngineSnapshot is the full persisted state of an engine.
type EngineSnapshot struct {
	Registry string           `json:"registry"`
	TxSeq    uint64           `json:"tx_seq"`
	Block    uint64           `json:"block"`
	Native   LedgerSnapshot   `json:"native"`
	Assets   []LedgerSnapshot `json:"assets"`
	Pools    []PoolSnapshot   `json:"pools"`
	TakenAt  string           `json:"taken_at"`
}
