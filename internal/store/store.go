package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Validation errors returned by mutating operations. No mutation leaves
// the store partially changed: a rejected entity is simply not written.
var (
	ErrEmptyTitle    = errors.New("task title is empty")
	ErrBadCategory   = errors.New("unknown task category")
	ErrEmptyZoneName = errors.New("zone name is empty")
	ErrBadRadius     = errors.New("zone radius must be positive")
	ErrBadCoordinate = errors.New("zone coordinate out of range")
	ErrBadKind       = errors.New("unknown zone kind")
)

// Options configures first-run behavior.
type Options struct {
	// SeedZones is inserted when the zones table is empty, so a fresh
	// install starts with a usable geofence set instead of none.
	SeedZones []Zone
}

// DefaultSeedZones is the zone set a fresh install starts with.
var DefaultSeedZones = []Zone{
	{Name: "School", Lat: 36.4507, Lon: 136.5933, Radius: 200, Kind: ZoneSchool},
}

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath, runs migrations
// and applies first-run seeding.
func New(dbPath string, opts Options) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.seedZones(opts.SeedZones); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed zones: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:", Options{})
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS tasks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT NOT NULL,
		detail      TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT 'other',
		completed   INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS zones (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		lat         REAL NOT NULL,
		lon         REAL NOT NULL,
		radius      REAL NOT NULL,
		kind        TEXT NOT NULL,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('resolver_strategy',  'nearest'),
		('location_accuracy',  'high'),
		('biometric_enabled',  '0');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// seedZones inserts seed on the first open only. A settings marker
// records that seeding happened, so a user who deletes every zone and
// restarts keeps an empty zone set instead of getting the defaults back.
func (s *Store) seedZones(seed []Zone) error {
	if len(seed) == 0 {
		return nil
	}
	if s.GetSettingDefault("zones_seeded", "0") == "1" {
		return nil
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM zones`).Scan(&n); err != nil {
		return err
	}
	// Databases created before the marker existed count their zones as
	// the evidence of a prior seeding.
	if n == 0 {
		for _, z := range seed {
			if _, err := s.CreateZone(z.Name, z.Lat, z.Lon, z.Radius, z.Kind); err != nil {
				return err
			}
		}
	}
	return s.SetSetting("zones_seeded", "1")
}

// DefaultDBPath returns ~/.config/secure-todo/secure-todo.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "secure-todo", "secure-todo.db"), nil
}
