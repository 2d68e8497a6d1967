package config

import "github.com/spf13/pflag"

// QuoteConfig holds configuration for the quote command. Reserves are read
// from Snapshot when it is set, otherwise from the explicit reserve values.
type QuoteConfig struct {
	Direction           string
	Amount              string
	Snapshot            string
	Asset               string
	Target              string
	NativeReserve       string
	AssetReserve        string
	TargetNativeReserve string
	TargetAssetReserve  string
	LogLevel            string
}

func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"direction": "native-to-asset",
		"log-level": "warn",
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	return QuoteConfig{
		Direction:           v.GetString("direction"),
		Amount:              v.GetString("amount"),
		Snapshot:            v.GetString("snapshot"),
		Asset:               v.GetString("asset"),
		Target:              v.GetString("target"),
		NativeReserve:       v.GetString("native-reserve"),
		AssetReserve:        v.GetString("asset-reserve"),
		TargetNativeReserve: v.GetString("target-native-reserve"),
		TargetAssetReserve:  v.GetString("target-asset-reserve"),
		LogLevel:            v.GetString("log-level"),
	}, nil
}
