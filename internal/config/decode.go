package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	In       string
	Out      string
	Errors   string
	Snapshot string
	Pools    []string
	LogLevel string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"out":       "./data/decoded_records.jsonl",
		"errors":    "./data/decode_errors.jsonl",
		"log-level": "info",
	})
	if err != nil {
		return DecodeConfig{}, err
	}

	return DecodeConfig{
		In:       v.GetString("in"),
		Out:      v.GetString("out"),
		Errors:   v.GetString("errors"),
		Snapshot: v.GetString("snapshot"),
		Pools:    getStringSlice(v, "pool"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

// ParsePoolAssets parses "pool=asset" pairs.
func ParsePoolAssets(pairs []string) (map[common.Address]common.Address, error) {
	out := make(map[common.Address]common.Address, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid pool mapping %q, want pool=asset", pair)
		}
		pool, asset := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if !common.IsHexAddress(pool) || !common.IsHexAddress(asset) {
			return nil, fmt.Errorf("invalid address in pool mapping %q", pair)
		}
		out[common.HexToAddress(pool)] = common.HexToAddress(asset)
	}
	return out, nil
}
