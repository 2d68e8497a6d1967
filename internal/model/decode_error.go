package model

// DecodeError records a decode failure for a log line.
type DecodeError struct {
	TxID        uint64 `json:"tx_id"`
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint64 `json:"log_index"`
	Address     string `json:"address"`
	Topic0      string `json:"topic0"`
	Error       string `json:"error"`
}
