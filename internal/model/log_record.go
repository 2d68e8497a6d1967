package model

// LogRecord is an ABI-encoded record in EVM log shape, as stored in JSONL.
type LogRecord struct {
	TxID        uint64   `json:"tx_id"`
	BlockNumber uint64   `json:"block_number"`
	LogIndex    uint64   `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	Timestamp   uint64   `json:"timestamp"`
}
