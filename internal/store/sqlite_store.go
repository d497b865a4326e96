package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const createSettingsTable = `
CREATE TABLE IF NOT EXISTS face_config (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	version  INTEGER NOT NULL,
	revision TEXT    NOT NULL,
	saved_at TEXT    NOT NULL,
	payload  TEXT    NOT NULL
)`

type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init() error {
	if s.db != nil {
		return nil
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(createSettingsTable); err != nil {
		db.Close()
		return fmt.Errorf("failed to create face_config table: %w", err)
	}
	s.db = db
	return nil
}

func (s *SQLiteStore) Load() (Record, bool, error) {
	if s.db == nil {
		return Record{}, false, ErrNotInitialized
	}

	var (
		rec     Record
		savedAt string
		payload string
	)
	row := s.db.QueryRow("SELECT version, revision, saved_at, payload FROM face_config WHERE id = 1")
	if err := row.Scan(&rec.Version, &rec.Revision, &savedAt, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return defaultRecord(), false, nil
		}
		return Record{}, false, fmt.Errorf("failed to read config record: %w", err)
	}
	if err := rec.validate(); err != nil {
		return Record{}, false, err
	}

	t, err := time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return Record{}, false, fmt.Errorf("parsing saved_at: %w", err)
	}
	rec.SavedAt = t

	// Fields missing from older payloads keep their defaults.
	rec.Config = defaultRecord().Config
	if err := json.Unmarshal([]byte(payload), &rec.Config); err != nil {
		return Record{}, false, fmt.Errorf("decoding config payload: %w", err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) Save(rec Record) error {
	if s.db == nil {
		return ErrNotInitialized
	}
	if err := rec.validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("encoding config payload: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO face_config (id, version, revision, saved_at, payload)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			revision = excluded.revision,
			saved_at = excluded.saved_at,
			payload = excluded.payload`,
		rec.Version, rec.Revision, rec.SavedAt.UTC().Format(time.RFC3339Nano), string(payload))
	if err != nil {
		return fmt.Errorf("failed to write config record: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *SQLiteStore) Path() string { return s.path }
