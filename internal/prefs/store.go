// Package prefs persists user preferences (tracked watchlist, dark
// mode, last selection) across dashboard sessions. Reads fall back to
// defaults on missing or corrupt data and writes are best-effort, so
// the store never fails the data controllers.
package prefs

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	keyWatchlist = "watchlist"
	keyDarkMode  = "dark_mode"
	keySelected  = "selected_symbol"
	keyUserPrefs = "user_prefs"
)

// UserPrefs is the miscellaneous preference bundle.
type UserPrefs struct {
	AutoRefresh        bool `json:"auto_refresh"`
	RefreshIntervalSec int  `json:"refresh_interval_sec"`
	ShowVolume         bool `json:"show_volume"`
}

// DefaultUserPrefs returns the bundle used when nothing is stored.
func DefaultUserPrefs() UserPrefs {
	return UserPrefs{AutoRefresh: true, RefreshIntervalSec: 30, ShowVolume: true}
}

// Store is a sqlite-backed key/value preference store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the preference database and runs migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "data/prefs.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=3000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT
	);`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// get loads and decodes the value for key into out, reporting whether
// a usable value was found. Corrupt rows count as absent.
func (s *Store) get(key string, out any) bool {
	if s == nil || s.db == nil {
		return false
	}
	var raw string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("prefs read %s error: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("prefs decode %s error: %v", key, err)
		return false
	}
	return true
}

// set stores a value best-effort; failures are logged, not surfaced.
func (s *Store) set(key string, v any) {
	if s == nil || s.db == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("prefs encode %s error: %v", key, err)
		return
	}
	_, err = s.db.Exec(
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw), time.Now().Format(time.RFC3339),
	)
	if err != nil {
		log.Printf("prefs write %s error: %v", key, err)
	}
}

func (s *Store) delete(key string) {
	if s == nil || s.db == nil {
		return
	}
	if _, err := s.db.Exec(`DELETE FROM preferences WHERE key = ?`, key); err != nil {
		log.Printf("prefs delete %s error: %v", key, err)
	}
}

// Watchlist returns the stored tracked-symbol list, or defaults when
// nothing usable is stored.
func (s *Store) Watchlist(defaults []string) []string {
	var symbols []string
	if s.get(keyWatchlist, &symbols) && len(symbols) > 0 {
		return symbols
	}
	return append([]string(nil), defaults...)
}

func (s *Store) SetWatchlist(symbols []string) {
	s.set(keyWatchlist, symbols)
}

// DarkMode returns the stored dark-mode flag, defaulting to false.
func (s *Store) DarkMode() bool {
	var dark bool
	s.get(keyDarkMode, &dark)
	return dark
}

func (s *Store) SetDarkMode(dark bool) {
	s.set(keyDarkMode, dark)
}

// SelectedSymbol returns the last selected symbol, if any.
func (s *Store) SelectedSymbol() (string, bool) {
	var symbol string
	if s.get(keySelected, &symbol) && symbol != "" {
		return symbol, true
	}
	return "", false
}

// SetSelectedSymbol stores the selection; an empty symbol clears it.
func (s *Store) SetSelectedSymbol(symbol string) {
	if symbol == "" {
		s.delete(keySelected)
		return
	}
	s.set(keySelected, symbol)
}

// UserPrefs returns the stored preference bundle, or defaults.
func (s *Store) UserPrefs() UserPrefs {
	p := DefaultUserPrefs()
	s.get(keyUserPrefs, &p)
	return p
}

func (s *Store) SetUserPrefs(p UserPrefs) {
	s.set(keyUserPrefs, p)
}
