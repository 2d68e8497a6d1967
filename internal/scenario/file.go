package scenario

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"
)

// File is a scripted sequence of pool operations.
type File struct {
	Registry     string        `yaml:"registry"`
	NativeSymbol string        `yaml:"native_symbol"`
	Assets       []AssetSpec   `yaml:"assets"`
	Accounts     []AccountSpec `yaml:"accounts"`
	Steps        []Step        `yaml:"steps"`
}

// AssetSpec declares an asset ledger and its pool.
type AssetSpec struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// AccountSpec declares a participant and its starting balances. Asset
// balances are keyed by asset name.
type AccountSpec struct {
	Name    string            `yaml:"name"`
	Address string            `yaml:"address"`
	Native  string            `yaml:"native"`
	Assets  map[string]string `yaml:"assets"`
}

// Step is one operation. Amount fields are decimal strings; "max" means the
// largest 256-bit value. Expect names the failure the step must end with,
// "error" accepts any failure, empty requires success.
type Step struct {
	Op        string `yaml:"op"`
	Caller    string `yaml:"caller"`
	Asset     string `yaml:"asset"`
	Target    string `yaml:"target"`
	Native    string `yaml:"native"`
	Amount    string `yaml:"amount"`
	Min       string `yaml:"min"`
	Spender   string `yaml:"spender"`
	Recipient string `yaml:"recipient"`
	Expect    string `yaml:"expect"`
}

// Load reads and parses a scenario YAML file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(f.Assets) == 0 {
		return nil, fmt.Errorf("scenario declares no assets")
	}
	seen := make(map[string]bool)
	for _, a := range f.Assets {
		if a.Name == "" {
			return nil, fmt.Errorf("asset without name")
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("duplicate name %q", a.Name)
		}
		seen[a.Name] = true
	}
	for _, a := range f.Accounts {
		if a.Name == "" {
			return nil, fmt.Errorf("account without name")
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("duplicate name %q", a.Name)
		}
		seen[a.Name] = true
	}
	return &f, nil
}

// RegistryAddress returns the address the pool registry deploys from.
func (f *File) RegistryAddress() common.Address {
	name := f.Registry
	if name == "" {
		name = "registry"
	}
	return NameAddress(name)
}

// NameAddress maps a hex address to itself and any other name to the last
// 20 bytes of its keccak256 hash.
func NameAddress(name string) common.Address {
	if common.IsHexAddress(name) {
		return common.HexToAddress(name)
	}
	return common.BytesToAddress(crypto.Keccak256([]byte(name)))
}

func declared(name, address string) common.Address {
	if address != "" {
		return common.HexToAddress(address)
	}
	return NameAddress(name)
}

// ParseAmount parses a decimal amount. Empty means zero.
func ParseAmount(raw string) (*uint256.Int, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), "_", "")
	switch strings.ToLower(raw) {
	case "":
		return new(uint256.Int), nil
	case "max":
		return new(uint256.Int).SetAllOne(), nil
	}
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return v, nil
}
