package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// baseSchema is the catalog as first released. Later columns are added by
// catalogColumns so older catalog files keep opening.
const baseSchema = `
CREATE TABLE IF NOT EXISTS images (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL,
	dish TEXT NOT NULL DEFAULT '',
	timestamp DATETIME NOT NULL,
	filepath TEXT NOT NULL UNIQUE,
	filesize INTEGER DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS proposals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	image_id INTEGER NOT NULL,
	dish TEXT NOT NULL DEFAULT '',
	x INTEGER DEFAULT 0,
	y INTEGER DEFAULT 0,
	width INTEGER DEFAULT 0,
	height INTEGER DEFAULT 0,
	center_x REAL DEFAULT 0,
	center_y REAL DEFAULT 0,
	norm_width REAL DEFAULT 0,
	norm_height REAL DEFAULT 0,
	confidence REAL DEFAULT 0,
	FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE
);`

type column struct {
	table, name, definition string
}

var catalogColumns = []column{
	{"images", "session_id", "TEXT NOT NULL DEFAULT ''"},
	{"images", "fingerprint", "TEXT NOT NULL DEFAULT ''"},
	{"images", "status", "TEXT NOT NULL DEFAULT 'accepted'"},
}

const indexes = `
CREATE INDEX IF NOT EXISTS idx_images_dish ON images(dish);
CREATE INDEX IF NOT EXISTS idx_images_fingerprint ON images(fingerprint);
CREATE INDEX IF NOT EXISTS idx_images_status ON images(status);
CREATE INDEX IF NOT EXISTS idx_proposals_image_id ON proposals(image_id);`

// migrate brings the catalog up to date: base tables, missing columns, indexes.
func (db *DB) migrate() error {
	if _, err := db.conn.Exec(baseSchema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	for _, c := range catalogColumns {
		exists, err := db.hasColumn(c.table, c.name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := db.conn.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.table, c.name, c.definition)); err != nil {
			return fmt.Errorf("failed to add %s.%s: %w", c.table, c.name, err)
		}
	}

	if _, err := db.conn.Exec(indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (db *DB) hasColumn(table, name string) (bool, error) {
	rows, err := db.conn.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			colName    string
			colType    string
			notNull    int
			defaultVal sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultVal, &primaryKey); err != nil {
			return false, err
		}
		if colName == name {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}
