package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// Store manages the state file.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the path to the state file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, "state.json")
}

// Load reads the state from disk. A missing file is an empty state.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return &State{Cookies: make(map[string][]Cookie)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	if st.Cookies == nil {
		st.Cookies = make(map[string][]Cookie)
	}
	return &st, nil
}

// Save writes the state to disk atomically. Unchanged content is left
// alone.
func (s *Store) Save(st *State) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')

	path := s.Path()
	if existing, err := os.ReadFile(path); err == nil {
		if bytes.Equal(existing, data) {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read state file: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	// atomic.WriteFile keeps existing permissions but not for new files,
	// and this file holds session cookies.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("set state file permissions: %w", err)
	}
	return nil
}
