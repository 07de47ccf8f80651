// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// collection name -> table name; also guards against unknown collections.
var tables = map[string]string{
	Questions: "questions",
	Papers:    "papers",
	Records:   "records",
}

// SQLiteStorage implements Storage using SQLite in WAL mode.
// Write transactions start IMMEDIATE (via a dedicated connection pool) so a
// writer holds the write lock from its first read onward.
type SQLiteStorage struct {
	db  *sql.DB // read transactions
	wdb *sql.DB // write transactions, _txlock=immediate
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	wdb, err := sql.Open("sqlite3", dbPath+"?_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open write connection: %w", err)
	}
	return &SQLiteStorage{db: db, wdb: wdb}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS kvstore (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	for _, table := range tables {
		schema += fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		id TEXT PRIMARY KEY,
		deleted INTEGER NOT NULL DEFAULT 0,
		last_update INTEGER NOT NULL DEFAULT 0,
		body TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_deleted ON %[1]s(deleted);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_last_update ON %[1]s(last_update);
	`, table)
	}
	_, err := db.Exec(schema)
	return err
}

// Begin opens a transaction. Writable transactions use the immediate pool.
func (s *SQLiteStorage) Begin(ctx context.Context, writable bool) (Tx, error) {
	db := s.db
	if writable {
		db = s.wdb
	}
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: false})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqliteTx{ctx: ctx, tx: tx}, nil
}

// Close closes both connection pools.
func (s *SQLiteStorage) Close() error {
	werr := s.wdb.Close()
	if err := s.db.Close(); err != nil {
		return err
	}
	return werr
}

type sqliteTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func tableFor(collection string) (string, error) {
	table, ok := tables[collection]
	if !ok {
		return "", fmt.Errorf("unknown collection: %s", collection)
	}
	return table, nil
}

func (t *sqliteTx) Get(collection, id string) (*Record, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}
	var rec Record
	var deleted int
	err = t.tx.QueryRowContext(t.ctx,
		fmt.Sprintf(`SELECT id, deleted, last_update, body FROM %s WHERE id = ?`, table), id,
	).Scan(&rec.ID, &deleted, &rec.LastUpdate, &rec.Body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Deleted = deleted != 0
	return &rec, nil
}

func (t *sqliteTx) Put(collection string, rec *Record) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	deleted := 0
	if rec.Deleted {
		deleted = 1
	}
	_, err = t.tx.ExecContext(t.ctx,
		fmt.Sprintf(`INSERT INTO %s (id, deleted, last_update, body) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET deleted = excluded.deleted,
		 last_update = excluded.last_update, body = excluded.body`, table),
		rec.ID, deleted, rec.LastUpdate, rec.Body,
	)
	return err
}

func (t *sqliteTx) Delete(collection, id string) (bool, error) {
	table, err := tableFor(collection)
	if err != nil {
		return false, err
	}
	result, err := t.tx.ExecContext(t.ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (t *sqliteTx) Scan(collection string, fn func(rec *Record) error) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	rows, err := t.tx.QueryContext(t.ctx,
		fmt.Sprintf(`SELECT id, deleted, last_update, body FROM %s ORDER BY id`, table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rec Record
		var deleted int
		if err := rows.Scan(&rec.ID, &deleted, &rec.LastUpdate, &rec.Body); err != nil {
			return err
		}
		rec.Deleted = deleted != 0
		if err := fn(&rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (t *sqliteTx) KVGet(key string) ([]byte, error) {
	var value []byte
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT value FROM kvstore WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (t *sqliteTx) KVPut(key string, value []byte) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO kvstore (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (t *sqliteTx) Commit() error   { return t.tx.Commit() }
func (t *sqliteTx) Rollback() error { return t.tx.Rollback() }
