// Package records persists reply attempts so a target is never attempted
// twice across runs.
package records

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Attempt outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Attempt is one reply/post attempt against a target, recorded exactly
// once regardless of outcome.
type Attempt struct {
	Timestamp   string `json:"timestamp"`
	RepliedText string `json:"replied_text"`
	Outcome     string `json:"outcome"`
	FailedStep  string `json:"failed_step,omitempty"`
}

// Store is an append-only map from target id to attempt. Small cardinality
// expected, so there is no eviction.
type Store struct {
	path     string
	attempts map[string]Attempt
}

// Open loads the record file, or starts empty when it doesn't exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path, attempts: make(map[string]Attempt)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("records: read: %w", err)
	}

	if err := json.Unmarshal(data, &s.attempts); err != nil {
		return nil, fmt.Errorf("records: parse: %w", err)
	}

	return s, nil
}

// Has reports whether a target id has already been attempted.
func (s *Store) Has(id string) bool {
	_, ok := s.attempts[id]
	return ok
}

// Get returns the recorded attempt for a target id.
func (s *Store) Get(id string) (Attempt, bool) {
	a, ok := s.attempts[id]
	return a, ok
}

// Len returns the number of recorded attempts.
func (s *Store) Len() int {
	return len(s.attempts)
}

// Record stores the attempt for a target id and rewrites the file
// atomically. An existing record is never overwritten.
func (s *Store) Record(id string, a Attempt) error {
	if s.Has(id) {
		return nil
	}
	if a.Timestamp == "" {
		a.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	s.attempts[id] = a

	data, err := json.MarshalIndent(s.attempts, "", "  ")
	if err != nil {
		return fmt.Errorf("records: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
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

	return os.Rename(tmp.Name(), s.path)
}
