// Package store is the console's local customer cache. It is disposable:
// the API stays the system of record and the cache is rebuilt from it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/client"
	"github.com/hazyhaar/rebeauty/pkg/search"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("store: customer not found")

// SyncState is a row from the sync_state table.
type SyncState struct {
	Name       string
	LastSync   *int64
	LastStatus string
	LastError  *string
	Rows       int
}

// Cache manages the customers and sync_state SQLite tables.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and ensures the
// tables exist.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	ddl := []string{`CREATE TABLE IF NOT EXISTS customers (
		id           INTEGER PRIMARY KEY,
		name         TEXT NOT NULL,
		kana         TEXT NOT NULL DEFAULT '',
		phone        TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		note         TEXT NOT NULL DEFAULT '',
		birthday     TEXT NOT NULL DEFAULT '',
		email_opt_in INTEGER NOT NULL DEFAULT 0,
		updated_at   INTEGER NOT NULL
	)`,
		`CREATE TABLE IF NOT EXISTS sync_state (
		name        TEXT PRIMARY KEY,
		last_sync   INTEGER,
		last_status TEXT NOT NULL DEFAULT '',
		last_error  TEXT,
		row_count   INTEGER NOT NULL DEFAULT 0
	)`}
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create cache tables: %w", err)
		}
	}
	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const upsertSQL = `INSERT INTO customers
	(id, name, kana, phone, email, note, birthday, email_opt_in, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name, kana = excluded.kana, phone = excluded.phone,
		email = excluded.email, note = excluded.note, birthday = excluded.birthday,
		email_opt_in = excluded.email_opt_in, updated_at = excluded.updated_at`

func upsert(ctx context.Context, ex execer, cu client.Customer, now int64) error {
	optIn := 0
	if cu.EmailOptIn {
		optIn = 1
	}
	_, err := ex.ExecContext(ctx, upsertSQL,
		cu.ID, cu.Name, cu.Kana, cu.Phone, cu.Email, cu.Note, cu.Birthday, optIn, now)
	if err != nil {
		return fmt.Errorf("upsert customer %d: %w", cu.ID, err)
	}
	return nil
}

// Upsert inserts or refreshes one customer.
func (c *Cache) Upsert(ctx context.Context, cu client.Customer) error {
	return upsert(ctx, c.db, cu, time.Now().Unix())
}

// Replace swaps the whole customer table for customers in one transaction.
func (c *Cache) Replace(ctx context.Context, customers []client.Customer) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM customers`); err != nil {
		return fmt.Errorf("clear customers: %w", err)
	}
	now := time.Now().Unix()
	for _, cu := range customers {
		if err := upsert(ctx, tx, cu, now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

const selectCols = `id, name, kana, phone, email, note, birthday, email_opt_in`

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(s scanner) (client.Customer, error) {
	var cu client.Customer
	var optIn int
	err := s.Scan(&cu.ID, &cu.Name, &cu.Kana, &cu.Phone, &cu.Email, &cu.Note, &cu.Birthday, &optIn)
	cu.EmailOptIn = optIn != 0
	return cu, err
}

// List returns all cached customers ordered by id.
func (c *Cache) List(ctx context.Context) ([]client.Customer, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+selectCols+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []client.Customer
	for rows.Next() {
		cu, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, cu)
	}
	return out, rows.Err()
}

// Get returns one cached customer.
func (c *Cache) Get(ctx context.Context, id int64) (*client.Customer, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+selectCols+` FROM customers WHERE id = ?`, id)
	cu, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}
	return &cu, nil
}

// Count returns the number of cached customers.
func (c *Cache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// Searchables projects the cache into search candidates, in id order.
func (c *Cache) Searchables() ([]search.Customer, error) {
	list, err := c.List(context.Background())
	if err != nil {
		return nil, err
	}
	out := make([]search.Customer, 0, len(list))
	for _, cu := range list {
		out = append(out, search.NewCustomer(strconv.FormatInt(cu.ID, 10), cu.Name, cu.Phone))
	}
	return out, nil
}

// RecordSync persists the outcome of a sync run.
func (c *Cache) RecordSync(name, status string, rowCount int, syncErr string) error {
	var errPtr *string
	if syncErr != "" {
		errPtr = &syncErr
	}
	_, err := c.db.Exec(`INSERT INTO sync_state (name, last_sync, last_status, last_error, row_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET last_sync = excluded.last_sync,
			last_status = excluded.last_status, last_error = excluded.last_error,
			row_count = excluded.row_count`,
		name, time.Now().Unix(), status, errPtr, rowCount)
	if err != nil {
		return fmt.Errorf("record sync %s: %w", name, err)
	}
	return nil
}

// LastSync returns the sync_state row for name, or nil when it never ran.
func (c *Cache) LastSync(name string) (*SyncState, error) {
	var st SyncState
	err := c.db.QueryRow(`SELECT name, last_sync, last_status, last_error, row_count
		FROM sync_state WHERE name = ?`, name).
		Scan(&st.Name, &st.LastSync, &st.LastStatus, &st.LastError, &st.Rows)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last sync %s: %w", name, err)
	}
	return &st, nil
}
