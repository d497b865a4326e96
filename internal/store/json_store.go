package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// JSONStore keeps the record in a single file, replaced by rename on save.
type JSONStore struct {
	path        string
	initialized bool
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Init() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	s.initialized = true
	return nil
}

func (s *JSONStore) Load() (Record, bool, error) {
	if !s.initialized {
		return Record{}, false, ErrNotInitialized
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultRecord(), false, nil
		}
		return Record{}, false, fmt.Errorf("failed to read config record: %w", err)
	}

	rec := defaultRecord()
	rec.Version = 0
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decoding config record: %w", err)
	}
	if err := rec.validate(); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *JSONStore) Save(rec Record) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if err := rec.validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config record: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".face-config-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace config record: %w", err)
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) Path() string { return s.path }
