/* Copyright 2026 Convene Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package database provides the durable local store for bookmarks, notes
// and the sync queue
package database

import (
	"database/sql"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// ErrStorageFull is returned when the backing store has run out of space.
// Callers should prompt the user to free space rather than retry.
var ErrStorageFull = errors.New("local storage is full")

// DB is a handle to the local database. It executes statements against
// either a connection or, after Begin, a transaction.
type DB struct {
	conn *sql.DB
	tx   *sql.Tx
}

// Open initializes a database connection to the given path
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	if err := conn.Ping(); err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}

	return &DB{conn: conn}, nil
}

// Begin starts a transaction and returns a handle scoped to it
func (d *DB) Begin() (*DB, error) {
	if d.tx != nil {
		return nil, errors.New("already inside a transaction")
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning a transaction")
	}

	return &DB{conn: d.conn, tx: tx}, nil
}

// Commit commits the transaction
func (d *DB) Commit() error {
	if d.tx == nil {
		return errors.New("not inside a transaction")
	}

	return d.tx.Commit()
}

// Rollback aborts the transaction. It is a noop outside a transaction so that
// cleanup paths can call it unconditionally.
func (d *DB) Rollback() error {
	if d.tx == nil {
		return nil
	}

	return d.tx.Rollback()
}

// Close closes the underlying connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Exec executes the given statement
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	if d.tx != nil {
		return d.tx.Exec(query, args...)
	}

	return d.conn.Exec(query, args...)
}

// Query runs the given query
func (d *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	if d.tx != nil {
		return d.tx.Query(query, args...)
	}

	return d.conn.Query(query, args...)
}

// QueryRow runs the given query returning at most one row
func (d *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	if d.tx != nil {
		return d.tx.QueryRow(query, args...)
	}

	return d.conn.QueryRow(query, args...)
}

// classifyWriteErr distinguishes out-of-space conditions from generic
// write failures so that callers can surface a user-actionable error.
func classifyWriteErr(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrFull {
			return errors.Wrap(ErrStorageFull, sqliteErr.Error())
		}
		if sqliteErr.ExtendedCode == sqlite3.ErrIoErrWrite {
			return errors.Wrap(ErrStorageFull, sqliteErr.Error())
		}
	}

	return err
}

// GetSystem scans the value of the system record with the given key into dest
func (d *DB) GetSystem(key string, dest interface{}) error {
	if err := d.QueryRow("SELECT value FROM system WHERE key = ?", key).Scan(dest); err != nil {
		return errors.Wrapf(err, "getting system value for %s", key)
	}

	return nil
}

// UpdateSystem updates the system record with the given key
func (d *DB) UpdateSystem(key string, val interface{}) error {
	if _, err := d.Exec("UPDATE system SET value = ? WHERE key = ?", val, key); err != nil {
		return errors.Wrapf(classifyWriteErr(err), "updating system value for %s", key)
	}

	return nil
}

// InitSystemKV inserts a system record with the given key if it is missing
func (d *DB) InitSystemKV(key string, val string) error {
	var count int
	if err := d.QueryRow("SELECT count(*) FROM system WHERE key = ?", key).Scan(&count); err != nil {
		return errors.Wrapf(err, "counting %s", key)
	}

	if count > 0 {
		return nil
	}

	if _, err := d.Exec("INSERT INTO system (key, value) VALUES (?, ?)", key, val); err != nil {
		return errors.Wrapf(classifyWriteErr(err), "inserting %s %s", key, val)
	}

	return nil
}

// IsSyncEnabled reads the persisted flag gating whether local mutations are
// queued for sync. A user who has never authenticated keeps local-only state.
func (d *DB) IsSyncEnabled() (bool, error) {
	var val string
	err := d.QueryRow("SELECT value FROM system WHERE key = ?", "sync_enabled").Scan(&val)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "getting sync_enabled flag")
	}

	return val == "1", nil
}

// SetSyncEnabled persists the flag gating whether local mutations are queued
func (d *DB) SetSyncEnabled(enabled bool) error {
	val := "0"
	if enabled {
		val = "1"
	}

	if err := d.InitSystemKV("sync_enabled", val); err != nil {
		return errors.Wrap(err, "initializing sync_enabled flag")
	}
	if err := d.UpdateSystem("sync_enabled", val); err != nil {
		return errors.Wrap(err, "updating sync_enabled flag")
	}

	return nil
}

// BookmarkID formats the canonical bookmark id for a (year, slug) pair.
// Re-saving the same logical bookmark therefore overwrites rather than duplicates.
func BookmarkID(year int, slug string) string {
	return fmt.Sprintf("%d-%s", year, slug)
}

// NoteID formats the id for a note. Unlike bookmarks, a slug may carry
// multiple notes, so the id includes the creation timestamp in unix
// milliseconds.
func NoteID(year int, slug string, createdAt int64) string {
	return fmt.Sprintf("%d-%s-%d", year, slug, createdAt)
}
