package config

import (
	"time"

	"github.com/spf13/pflag"
)

// RunConfig holds configuration for the run command.
type RunConfig struct {
	Scenario       string
	Out            string
	LogsOut        string
	Snapshot       string
	Restore        bool
	PGDSN          string
	StateName      string
	StopOnMismatch bool
	MaxRetries     int
	RetryBackoff   time.Duration
	LogLevel       string
}

// LoadRun merges config file, environment variables, and flags into RunConfig.
func LoadRun(cfgFile string, flags *pflag.FlagSet) (RunConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"out":           "./data/records.jsonl",
		"logs-out":      "./data/logs.jsonl",
		"snapshot":      "./data/snapshot.json",
		"state-name":    "engine",
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"log-level":     "info",
	})
	if err != nil {
		return RunConfig{}, err
	}

	return RunConfig{
		Scenario:       v.GetString("scenario"),
		Out:            v.GetString("out"),
		LogsOut:        v.GetString("logs-out"),
		Snapshot:       v.GetString("snapshot"),
		Restore:        v.GetBool("restore"),
		PGDSN:          v.GetString("pg-dsn"),
		StateName:      v.GetString("state-name"),
		StopOnMismatch: v.GetBool("stop-on-mismatch"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		LogLevel:       v.GetString("log-level"),
	}, nil
}
