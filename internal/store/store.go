// Package store persists the face configuration as one versioned record.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/photonicat/simply_analog/internal/face"
)

// SchemaVersion is the record layout written by this build.
const SchemaVersion = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported config record version")
	ErrNotInitialized     = errors.New("store not initialized")
)

// Record is the persisted form of a configuration.
type Record struct {
	Version  int         `json:"version"`
	Revision string      `json:"revision"`
	SavedAt  time.Time   `json:"saved_at"`
	Config   face.Config `json:"config"`
}

// NewRecord stamps cfg with a fresh revision.
func NewRecord(cfg face.Config, now time.Time) Record {
	return Record{
		Version:  SchemaVersion,
		Revision: uuid.NewString(),
		SavedAt:  now.UTC(),
		Config:   cfg,
	}
}

func (r Record) validate() error {
	if r.Version < 1 || r.Version > SchemaVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, r.Version)
	}
	return nil
}

type Store interface {
	Init() error
	// Load returns the stored record. found is false, with a default
	// configuration, when nothing has been saved yet.
	Load() (rec Record, found bool, err error)
	// Save atomically replaces the stored record.
	Save(Record) error
	Close() error
	Path() string
}

// Open returns the backend named by kind ("sqlite" or "json").
func Open(kind, path string) (Store, error) {
	var s Store
	switch kind {
	case "sqlite", "":
		s = NewSQLiteStore(path)
	case "json":
		s = NewJSONStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

func defaultRecord() Record {
	return Record{Version: SchemaVersion, Config: face.DefaultConfig()}
}
