package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/handiism/tagbot/internal/model"
)

// decodeSnapshot parses a stored snapshot and repairs its invariants.
// Toggles missing from older documents default to enabled.
func decodeSnapshot(data []byte) (*model.Snapshot, error) {
	snap := &model.Snapshot{Toggles: model.DefaultToggles()}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, err
	}
	snap.Normalize()
	return snap, nil
}

// LoadBackup reads the JSON backup file. It returns (nil, nil) when the
// file does not exist.
func LoadBackup(path string) (*model.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup: %w", err)
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decode backup %s: %w", path, err)
	}
	return snap, nil
}

// SaveBackup writes the snapshot to path as indented JSON. The file is
// replaced atomically so a crash never leaves a truncated backup.
func SaveBackup(path string, snap *model.Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bot_data-*.json")
	if err != nil {
		return fmt.Errorf("create temp backup: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close backup: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace backup: %w", err)
	}
	return nil
}

// RemoveBackup deletes the backup file. A missing file is not an error.
func RemoveBackup(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove backup: %w", err)
	}
	return nil
}
