package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"macro-trader/internal/models"
)

const accountFileName = "capital_data.json"

// FileStore persists the account state as a single JSON document with a
// schema version field, plus timestamped archive and snapshot files.
type FileStore struct {
	dataDir string
}

// NewFileStore creates a JSON file store rooted at dataDir.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &FileStore{dataDir: dataDir}, nil
}

// Load reads the account file. A missing file means no state yet.
func (f *FileStore) Load() (*models.AccountState, error) {
	data, err := os.ReadFile(f.accountPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading account file: %w", err)
	}

	var state models.AccountState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding account file: %w", err)
	}
	if state.SchemaVersion > models.AccountSchemaVersion {
		return nil, fmt.Errorf("account file schema v%d is newer than supported v%d",
			state.SchemaVersion, models.AccountSchemaVersion)
	}
	return &state, nil
}

// Save writes the account state atomically (temp file + rename).
func (f *FileStore) Save(state *models.AccountState) error {
	return f.writeJSON(f.accountPath(), state)
}

// Archive writes a full copy of the state under the given identity.
func (f *FileStore) Archive(state *models.AccountState, identity string) error {
	return f.writeJSON(filepath.Join(f.dataDir, identity+".json"), state)
}

// SaveSnapshot records one fetched macro snapshot under data_snapshots/.
func (f *FileStore) SaveSnapshot(snap models.MacroSnapshot) error {
	dir := filepath.Join(f.dataDir, "data_snapshots")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}
	name := fmt.Sprintf("snapshot_%s.json", snap.FetchedAt.Format("20060102_150405"))
	return f.writeJSON(filepath.Join(dir, name), snap)
}

// Close is a no-op for the file store.
func (f *FileStore) Close() error { return nil }

func (f *FileStore) accountPath() string {
	return filepath.Join(f.dataDir, accountFileName)
}

func (f *FileStore) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(f.dataDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// BackupIdentity builds the timestamp-derived archive identity used by
// account resets, e.g. "capital_backup_20240115_083000".
func BackupIdentity(now time.Time) string {
	return "capital_backup_" + now.Format("20060102_150405")
}
