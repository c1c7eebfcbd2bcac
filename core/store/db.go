package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"kestrel-idp/config"
)

var (
	// ErrConflict reports a storage-level uniqueness violation, e.g. a
	// duplicate username at registration.
	ErrConflict = errors.New("conflict")

	// ErrStorageUnavailable marks faults of the store itself, as opposed to
	// validation or not-found outcomes. Callers test it with errors.Is.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// NewDB opens the sqlite database at cfg.DBPath, creating the parent
// directory when needed. The returned handle is owned by the caller; stores
// never close a connection they did not open.
func NewDB(cfg *config.AppConfig) (*sql.DB, error) {
	path := cfg.DBPath
	if path == "" {
		return nil, fmt.Errorf("%w: empty db path", ErrStorageUnavailable)
	}
	if !strings.HasPrefix(path, ":memory:") && !strings.Contains(path, "mode=memory") {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%w: create db dir: %v", ErrStorageUnavailable, err)
			}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageUnavailable, path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrStorageUnavailable, path, err)
	}
	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`PRAGMA foreign_keys=ON;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, strings.TrimSuffix(pragma, ";"), err)
		}
	}
	return db, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
