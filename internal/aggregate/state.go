package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"liquidityEngine/internal/storage/postgres"
)

// StateStore persists the last record timestamp whose window is closed.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, ts uint64) error
}

// StateName is the engine_state key used for a window size.
func StateName(windowSeconds uint64) string {
	return "aggregate:" + strconv.FormatUint(windowSeconds, 10)
}

// FileStateStore keeps one progress entry per window size in a local JSON file.
type FileStateStore struct {
	Path          string
	WindowSeconds uint64
}

type windowState struct {
	LastProcessed uint64 `json:"last_processed_ts"`
	UpdatedAt     string `json:"updated_at"`
}

type stateFile struct {
	Windows map[string]windowState `json:"windows"`
}

func (s *FileStateStore) Load(_ context.Context) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}
	file, err := s.read()
	if err != nil {
		return 0, false, err
	}
	entry, ok := file.Windows[StateName(s.WindowSeconds)]
	if !ok {
		return 0, false, nil
	}
	return entry.LastProcessed, true, nil
}

func (s *FileStateStore) Save(_ context.Context, ts uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}
	file, err := s.read()
	if err != nil {
		return err
	}
	file.Windows[StateName(s.WindowSeconds)] = windowState{
		LastProcessed: ts,
		UpdatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

func (s *FileStateStore) read() (stateFile, error) {
	file := stateFile{Windows: make(map[string]windowState)}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return file, nil
		}
		return file, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse state: %w", err)
	}
	if file.Windows == nil {
		file.Windows = make(map[string]windowState)
	}
	return file, nil
}

// DBStateStore keeps progress in the engine_state table under StateName.
type DBStateStore struct {
	Store         *postgres.Store
	WindowSeconds uint64
}

func (s *DBStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Store == nil {
		return 0, false, nil
	}
	return s.Store.LoadState(ctx, StateName(s.WindowSeconds))
}

func (s *DBStateStore) Save(ctx context.Context, ts uint64) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, StateName(s.WindowSeconds), ts)
}
