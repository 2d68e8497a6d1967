package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"liquidityEngine/internal/model"
)

// FileSnapshotStore persists engine snapshots to a JSON file.
type FileSnapshotStore struct {
	Path string
}

func (s *FileSnapshotStore) Load() (model.EngineSnapshot, bool, error) {
	if s == nil || s.Path == "" {
		return model.EngineSnapshot{}, false, nil
	}

	stat, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.EngineSnapshot{}, false, nil
		}
		return model.EngineSnapshot{}, false, fmt.Errorf("stat snapshot: %w", err)
	}
	if stat.IsDir() {
		return model.EngineSnapshot{}, false, fmt.Errorf("snapshot path is a directory")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return model.EngineSnapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var snap model.EngineSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.EngineSnapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, true, nil
}

// Save writes snap through a temporary file so readers never see a partial file.
func (s *FileSnapshotStore) Save(snap model.EngineSnapshot) error {
	if s == nil || s.Path == "" {
		return nil
	}
	if err := ensureDir(s.Path); err != nil {
		return err
	}

	if snap.TakenAt == "" {
		snap.TakenAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}
