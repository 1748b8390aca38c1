package dedup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// State is the on-disk shape of the dedup ledger.
type State struct {
	SeenHashes []string `json:"seen_hashes"`
	LastCheck  string   `json:"last_check"`
}

// Store persists the ledger as a JSON state file. Writes go through a temp
// file and rename so a crash leaves either the old or the new state, never
// a partial one.
type Store struct {
	path string
	max  int
}

// NewStore creates a store for the state file at path with the given
// retention cap.
func NewStore(path string, max int) *Store {
	if max <= 0 {
		max = DefaultMaxSeen
	}
	return &Store{path: path, max: max}
}

// Load reads the ledger from disk. A missing file yields an empty ledger.
func (s *Store) Load() (*Ledger, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewLedger(s.max), nil
		}
		return nil, fmt.Errorf("dedup: read state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("dedup: parse state: %w", err)
	}

	l := NewLedger(s.max)
	l.Commit(state.SeenHashes...)
	return l, nil
}

// Save atomically rewrites the state file from the ledger.
func (s *Store) Save(l *Ledger) error {
	state := State{
		SeenHashes: l.Hashes(),
		LastCheck:  time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("dedup: marshal state: %w", err)
	}

	return atomicWrite(s.path, data)
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}
