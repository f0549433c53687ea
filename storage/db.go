package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"sol/config"
)

const dbFile = "sol.db"

// DB is the SQLite database backing memories, contacts, clipboard captures
// and notes.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) sol.db in dataDir and brings its schema up to date.
func Open(dataDir string) (*DB, error) {
	dbPath := filepath.Join(dataDir, dbFile)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps pragmas and writes on one handle.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", p, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &DB{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	config.DebugLog.Debugf("[Storage] opened %s", dbPath)
	return store, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Memories returns the memory store backed by d.
func (d *DB) Memories() *MemoryStore { return &MemoryStore{db: d} }

// Contacts returns the contact store backed by d.
func (d *DB) Contacts() *ContactStore { return &ContactStore{db: d} }

// Context returns the clipboard and notes store backed by d. Conversation
// transcripts are searched too when conversations is non-nil.
func (d *DB) Context(conversations *SearchIndex) *ContextStore {
	return &ContextStore{db: d, conversations: conversations}
}

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0.5,
	usage_count INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	last_used_at INTEGER NOT NULL DEFAULT 0,
	UNIQUE(category, key)
);
CREATE INDEX IF NOT EXISTS idx_memories_usage ON memories(usage_count DESC);

CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts(name);

CREATE TABLE IF NOT EXISTS clipboard (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	source_app TEXT NOT NULL DEFAULT '',
	copied_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_clipboard_copied_at ON clipboard(copied_at DESC);

CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

func (d *DB) initialize() error {
	if _, err := d.db.Exec(schema); err != nil {
		return err
	}
	if err := d.migrateSchema(); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}

// columnMigrations lists columns added after the first release. Databases
// created before a column existed get it through ALTER TABLE.
var columnMigrations = []struct {
	table, column, ddl string
}{
	{"memories", "source", `ALTER TABLE memories ADD COLUMN source TEXT NOT NULL DEFAULT ''`},
	{"contacts", "last_interaction", `ALTER TABLE contacts ADD COLUMN last_interaction INTEGER NOT NULL DEFAULT 0`},
}

func (d *DB) migrateSchema() error {
	for _, m := range columnMigrations {
		exists, err := d.columnExists(m.table, m.column)
		if err != nil {
			return fmt.Errorf("failed to check for %s.%s column: %w", m.table, m.column, err)
		}
		if exists {
			continue
		}
		if _, err := d.db.Exec(m.ddl); err != nil {
			return fmt.Errorf("failed to add %s.%s column: %w", m.table, m.column, err)
		}
		config.DebugLog.Debugf("[Storage] migrated: added %s.%s", m.table, m.column)
	}
	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info
func (d *DB) columnExists(tableName, columnName string) (bool, error) {
	rows, err := d.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid          int
			name         string
			dataType     string
			notNull      int
			defaultValue any
			pk           int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return false, err
		}
		if name == columnName {
			return true, nil
		}
	}

	return false, rows.Err()
}

// Timestamps are stored as Unix milliseconds; zero means unset.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// likePattern builds a LIKE operand matching s anywhere, with wildcards in s
// escaped by a backslash.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
