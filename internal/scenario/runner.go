package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityEngine/internal/engine"
	"liquidityEngine/internal/ledger"
	"liquidityEngine/internal/pool"
)

// Operation names accepted in Step.Op.
const (
	OpApprove       = "approve"
	OpInitialize    = "initialize"
	OpInvest        = "invest"
	OpDivest        = "divest"
	OpNativeToAsset = "native-to-asset"
	OpAssetToNative = "asset-to-native"
	OpAssetToAsset  = "asset-to-asset"
	OpFreeze        = "freeze"
	OpUnfreeze      = "unfreeze"
	OpBalance       = "balance"
	OpCheck         = "check"
)

// RunConfig holds runtime settings for a scenario run.
type RunConfig struct {
	// Setup registers assets, creates pools and funds accounts. It is
	// skipped when the engine was restored from a snapshot.
	Setup bool
	// StopOnMismatch aborts at the first step whose outcome differs from
	// its expectation.
	StopOnMismatch bool
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index    int    `json:"index"`
	Op       string `json:"op"`
	Outcome  string `json:"outcome"`
	Expected string `json:"expected,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Matched  bool   `json:"matched"`
}

// Report summarizes a run.
type Report struct {
	Steps      []StepResult `json:"steps"`
	Mismatches int          `json:"mismatches"`
}

// Runner replays a scenario file against an engine.
type Runner struct {
	cfg    RunConfig
	engine *engine.Engine
	logger *zap.Logger
	names  map[string]common.Address
	assets map[string]common.Address
}

func NewRunner(cfg RunConfig, e *engine.Engine, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		engine: e,
		logger: logger,
		names:  make(map[string]common.Address),
		assets: make(map[string]common.Address),
	}
}

// Run executes every step of f in order. Step failures are outcomes, not
// errors; Run only fails on a malformed scenario or a setup error.
func (r *Runner) Run(ctx context.Context, f *File) (Report, error) {
	var report Report
	if r.engine == nil {
		return report, fmt.Errorf("engine is nil")
	}
	if f == nil {
		return report, fmt.Errorf("scenario is nil")
	}

	for _, a := range f.Assets {
		addr := declared(a.Name, a.Address)
		r.names[a.Name] = addr
		r.assets[a.Name] = addr
	}
	for _, a := range f.Accounts {
		r.names[a.Name] = declared(a.Name, a.Address)
	}

	if r.cfg.Setup {
		if err := r.setup(f); err != nil {
			return report, err
		}
	}

	for i, step := range f.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := r.step(i, step)
		if err != nil {
			return report, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		report.Steps = append(report.Steps, res)
		if res.Matched {
			r.logger.Debug("step", zap.Int("index", i), zap.String("op", step.Op), zap.String("outcome", res.Outcome))
			continue
		}
		report.Mismatches++
		r.logger.Warn("step outcome mismatch",
			zap.Int("index", i),
			zap.String("op", step.Op),
			zap.String("outcome", res.Outcome),
			zap.String("expected", res.Expected),
			zap.String("detail", res.Detail),
		)
		if r.cfg.StopOnMismatch {
			break
		}
	}

	r.logger.Info("scenario complete",
		zap.Int("steps", len(report.Steps)),
		zap.Int("mismatches", report.Mismatches),
	)
	return report, nil
}

func (r *Runner) setup(f *File) error {
	for _, a := range f.Assets {
		addr := r.assets[a.Name]
		if _, err := r.engine.RegisterAsset(addr, a.Name); err != nil {
			return fmt.Errorf("register asset %s: %w", a.Name, err)
		}
		if _, err := r.engine.CreatePool(addr); err != nil {
			return fmt.Errorf("create pool for %s: %w", a.Name, err)
		}
	}
	for _, acct := range f.Accounts {
		addr := r.names[acct.Name]
		native, err := ParseAmount(acct.Native)
		if err != nil {
			return fmt.Errorf("account %s: %w", acct.Name, err)
		}
		if !native.IsZero() {
			if err := r.engine.FundNative(addr, native); err != nil {
				return fmt.Errorf("fund %s: %w", acct.Name, err)
			}
		}
		for name, raw := range acct.Assets {
			asset, ok := r.assets[name]
			if !ok {
				return fmt.Errorf("account %s: unknown asset %q", acct.Name, name)
			}
			amount, err := ParseAmount(raw)
			if err != nil {
				return fmt.Errorf("account %s: %w", acct.Name, err)
			}
			if err := r.engine.FundAsset(asset, addr, amount); err != nil {
				return fmt.Errorf("fund %s with %s: %w", acct.Name, name, err)
			}
		}
	}
	return nil
}

type amounts struct {
	native, amount, min *uint256.Int
}

func parseAmounts(step Step) (amounts, error) {
	var a amounts
	var err error
	if a.native, err = ParseAmount(step.Native); err != nil {
		return a, err
	}
	if a.amount, err = ParseAmount(step.Amount); err != nil {
		return a, err
	}
	if a.min, err = ParseAmount(step.Min); err != nil {
		return a, err
	}
	return a, nil
}

func (r *Runner) step(i int, step Step) (StepResult, error) {
	res := StepResult{Index: i, Op: step.Op, Expected: step.Expect}
	amt, err := parseAmounts(step)
	if err != nil {
		return res, err
	}
	caller := r.address(step.Caller)

	var opErr error
	switch step.Op {
	case OpApprove:
		asset, err := r.asset(step.Asset)
		if err != nil {
			return res, err
		}
		spender, err := r.spender(step, asset)
		if err != nil {
			return res, err
		}
		opErr = r.engine.Approve(asset, caller, spender, amt.amount)
	case OpInitialize, OpInvest, OpDivest:
		asset, err := r.asset(step.Asset)
		if err != nil {
			return res, err
		}
		var out pool.LiquidityResult
		switch step.Op {
		case OpInitialize:
			out, opErr = r.engine.Initialize(caller, asset, amt.native, amt.amount)
		case OpInvest:
			out, opErr = r.engine.Invest(caller, asset, amt.native, amt.min)
		default:
			out, opErr = r.engine.Divest(caller, asset, amt.native, amt.min)
		}
		if opErr == nil {
			res.Detail = fmt.Sprintf("shares=%s native=%s asset=%s", out.Shares.Dec(), out.NativeAmount.Dec(), out.AssetAmount.Dec())
		}
	case OpNativeToAsset, OpAssetToNative, OpAssetToAsset:
		asset, err := r.asset(step.Asset)
		if err != nil {
			return res, err
		}
		var out pool.SwapResult
		switch step.Op {
		case OpNativeToAsset:
			recipient := caller
			if step.Recipient != "" {
				recipient = r.address(step.Recipient)
			}
			out, opErr = r.engine.NativeToAssetSwap(caller, recipient, asset, amt.native, amt.min)
		case OpAssetToNative:
			out, opErr = r.engine.AssetToNativeSwap(caller, asset, amt.amount, amt.min)
		default:
			target, err := r.asset(step.Target)
			if err != nil {
				return res, err
			}
			out, opErr = r.engine.AssetToAssetSwap(caller, asset, target, amt.amount, amt.min)
		}
		if opErr == nil {
			res.Detail = fmt.Sprintf("in=%s out=%s fee=%s", out.AmountIn.Dec(), out.AmountOut.Dec(), out.Fee.Dec())
		}
	case OpFreeze, OpUnfreeze:
		l, err := r.ledger(step.Asset)
		if err != nil {
			return res, err
		}
		if step.Op == OpFreeze {
			l.Freeze(caller)
		} else {
			l.Unfreeze(caller)
		}
	case OpBalance:
		l, err := r.ledger(step.Asset)
		if err != nil {
			return res, err
		}
		got := l.BalanceOf(caller)
		res.Detail = "balance=" + got.Dec()
		if !got.Eq(amt.amount) {
			opErr = fmt.Errorf("balance %s, want %s", got.Dec(), amt.amount.Dec())
		}
	case OpCheck:
		opErr = r.engine.CheckInvariants()
	default:
		return res, fmt.Errorf("unknown op %q", step.Op)
	}

	res.Outcome = outcome(opErr)
	if opErr != nil {
		res.Detail = opErr.Error()
	}
	res.Matched = matches(step.Expect, opErr)
	return res, nil
}

// outcome names the result of an operation: "ok", a pool failure name, or
// "error" for anything else.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if name := pool.ErrorName(err); name != "" {
		return name
	}
	return "error"
}

func matches(expect string, err error) bool {
	switch strings.TrimSpace(expect) {
	case "", "ok":
		return err == nil
	case "error":
		return err != nil
	default:
		return outcome(err) == expect
	}
}

func (r *Runner) address(name string) common.Address {
	if addr, ok := r.names[name]; ok {
		return addr
	}
	return NameAddress(name)
}

func (r *Runner) asset(name string) (common.Address, error) {
	if name == "" {
		return common.Address{}, fmt.Errorf("asset is required")
	}
	if addr, ok := r.assets[name]; ok {
		return addr, nil
	}
	if common.IsHexAddress(name) {
		return common.HexToAddress(name), nil
	}
	return common.Address{}, fmt.Errorf("unknown asset %q", name)
}

// spender defaults to the pool of the approved asset.
func (r *Runner) spender(step Step, asset common.Address) (common.Address, error) {
	if step.Spender != "" {
		return r.address(step.Spender), nil
	}
	p, err := r.engine.Pool(asset)
	if err != nil {
		return common.Address{}, err
	}
	return p.Address(), nil
}

// ledger returns the native ledger for an empty or "native" asset name.
func (r *Runner) ledger(name string) (*ledger.MemoryLedger, error) {
	if name == "" || strings.EqualFold(name, "native") {
		return r.engine.Native(), nil
	}
	asset, err := r.asset(name)
	if err != nil {
		return nil, err
	}
	return r.engine.Asset(asset)
}
