package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"liquidityEngine/internal/config"
	"liquidityEngine/internal/engine"
	"liquidityEngine/internal/pool"
	"liquidityEngine/internal/scenario"
	"liquidityEngine/internal/storage"
)

type quoteResult struct {
	Direction    string `json:"direction"`
	AmountIn     string `json:"amount_in"`
	AmountOut    string `json:"amount_out"`
	Fee          string `json:"fee,omitempty"`
	NativeRouted string `json:"native_routed,omitempty"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	amount, err := scenario.ParseAmount(cfg.Amount)
	if err != nil {
		return err
	}
	if amount.IsZero() {
		return fmt.Errorf("amount is required")
	}

	var res quoteResult
	if cfg.Snapshot != "" {
		res, err = quoteFromSnapshot(cfg, amount)
	} else {
		res, err = quoteFromReserves(cfg, amount)
	}
	if err != nil {
		if name := pool.ErrorName(err); name != "" {
			return fmt.Errorf("quote failed (%s): %w", name, err)
		}
		return err
	}
	res.Direction = cfg.Direction
	res.AmountIn = amount.Dec()
	return printJSON(cmd.OutOrStdout(), res)
}

func quoteFromSnapshot(cfg config.QuoteConfig, amount *uint256.Int) (quoteResult, error) {
	snap, ok, err := (&storage.FileSnapshotStore{Path: cfg.Snapshot}).Load()
	if err != nil {
		return quoteResult{}, err
	}
	if !ok {
		return quoteResult{}, fmt.Errorf("snapshot %s not found", cfg.Snapshot)
	}
	if !common.IsHexAddress(cfg.Asset) {
		return quoteResult{}, fmt.Errorf("asset address is required with --snapshot")
	}

	eng, err := engine.New(engine.Config{RegistryAddress: common.HexToAddress(snap.Registry)}, nil)
	if err != nil {
		return quoteResult{}, err
	}
	if err := eng.Restore(snap); err != nil {
		return quoteResult{}, fmt.Errorf("restore engine: %w", err)
	}
	p, err := eng.Pool(common.HexToAddress(cfg.Asset))
	if err != nil {
		return quoteResult{}, err
	}

	switch cfg.Direction {
	case scenario.OpNativeToAsset:
		out, fee, err := p.QuoteNativeToAsset(amount)
		if err != nil {
			return quoteResult{}, err
		}
		return quoteResult{AmountOut: out.Dec(), Fee: fee.Dec()}, nil
	case scenario.OpAssetToNative:
		out, fee, err := p.QuoteAssetToNative(amount)
		if err != nil {
			return quoteResult{}, err
		}
		return quoteResult{AmountOut: out.Dec(), Fee: fee.Dec()}, nil
	case scenario.OpAssetToAsset:
		if !common.IsHexAddress(cfg.Target) {
			return quoteResult{}, fmt.Errorf("target asset address is required")
		}
		native, out, err := p.QuoteAssetToAsset(amount, common.HexToAddress(cfg.Target))
		if err != nil {
			return quoteResult{}, err
		}
		return quoteResult{AmountOut: out.Dec(), NativeRouted: native.Dec()}, nil
	default:
		return quoteResult{}, fmt.Errorf("unknown direction %q", cfg.Direction)
	}
}

func quoteFromReserves(cfg config.QuoteConfig, amount *uint256.Int) (quoteResult, error) {
	native, asset, err := reserves(cfg.NativeReserve, cfg.AssetReserve)
	if err != nil {
		return quoteResult{}, err
	}

	switch cfg.Direction {
	case scenario.OpNativeToAsset:
		out, fee, err := pool.NativeToAssetOutput(amount, native, asset)
		if err != nil {
			return quoteResult{}, err
		}
		return quoteResult{AmountOut: out.Dec(), Fee: fee.Dec()}, nil
	case scenario.OpAssetToNative:
		out, fee, err := pool.AssetToNativeOutput(amount, native, asset)
		if err != nil {
			return quoteResult{}, err
		}
		return quoteResult{AmountOut: out.Dec(), Fee: fee.Dec()}, nil
	case scenario.OpAssetToAsset:
		targetNative, targetAsset, err := reserves(cfg.TargetNativeReserve, cfg.TargetAssetReserve)
		if err != nil {
			return quoteResult{}, fmt.Errorf("target pool: %w", err)
		}
		routed, err := pool.AssetToAssetNativeOutput(amount, native, asset)
		if err != nil {
			return quoteResult{}, err
		}
		out, fee, err := pool.NativeToAssetOutput(routed, targetNative, targetAsset)
		if err != nil {
			return quoteResult{}, err
		}
		return quoteResult{AmountOut: out.Dec(), Fee: fee.Dec(), NativeRouted: routed.Dec()}, nil
	default:
		return quoteResult{}, fmt.Errorf("unknown direction %q", cfg.Direction)
	}
}

func reserves(nativeRaw, assetRaw string) (*uint256.Int, *uint256.Int, error) {
	native, err := scenario.ParseAmount(nativeRaw)
	if err != nil {
		return nil, nil, err
	}
	asset, err := scenario.ParseAmount(assetRaw)
	if err != nil {
		return nil, nil, err
	}
	if native.IsZero() || asset.IsZero() {
		return nil, nil, pool.ErrNotInitialized.Wrap("both reserves must be non-zero")
	}
	return native, asset, nil
}
