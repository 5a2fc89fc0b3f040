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

package database

import (
	"database/sql"

	"github.com/convene/convene/pkg/log"
	"github.com/convene/convene/pkg/validate"
	"github.com/pkg/errors"
)

// Record kinds held in the local store and referenced by queue items
const (
	KindBookmark = "bookmark"
	KindNote     = "note"
)

// Bookmark types
const (
	BookmarkTypeEvent = "event"
	BookmarkTypeTrack = "track"
)

// Bookmark statuses
const (
	StatusFavourited   = "favourited"
	StatusUnfavourited = "unfavourited"
)

// Bookmark is a favourited event or track for a conference year.
// ServerID is a weak back-reference to the authoritative server row; zero
// means the record has never been confirmed synced.
type Bookmark struct {
	ID         string `json:"id"`
	Year       int    `json:"year"`
	Slug       string `json:"slug"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	WatchLater bool   `json:"watchLater"`
	Priority   int    `json:"priority"`
	CreatedAt  int64  `json:"createdAt"`
	UpdatedAt  int64  `json:"updatedAt"`
	ServerID   int64  `json:"serverId"`
}

// Note is a talk note. A slug may carry multiple notes, distinguished by the
// optional Time marker within the talk, so the id embeds the creation time.
type Note struct {
	ID        string `json:"id"`
	Year      int    `json:"year"`
	Slug      string `json:"slug"`
	Body      string `json:"note"`
	Time      string `json:"time,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
	ServerID  int64  `json:"serverId"`
}

// Save upserts the bookmark by id. The write is a single statement and
// therefore atomic.
func (b Bookmark) Save(db *DB) error {
	_, err := db.Exec(`INSERT INTO bookmarks (id, year, slug, type, status, watch_later, priority, created_at, updated_at, server_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			year = excluded.year,
			slug = excluded.slug,
			type = excluded.type,
			status = excluded.status,
			watch_later = excluded.watch_later,
			priority = excluded.priority,
			updated_at = excluded.updated_at,
			server_id = excluded.server_id`,
		b.ID, b.Year, b.Slug, b.Type, b.Status, b.WatchLater, b.Priority, b.CreatedAt, b.UpdatedAt, b.ServerID)
	if err != nil {
		return errors.Wrapf(classifyWriteErr(err), "saving bookmark %s", b.ID)
	}

	return nil
}

// Save upserts the note by id
func (n Note) Save(db *DB) error {
	if err := validate.Note(n.Year, n.Slug, n.Body); err != nil {
		return errors.Wrapf(err, "validating note %s", n.ID)
	}

	_, err := db.Exec(`INSERT INTO notes (id, year, slug, body, time_marker, created_at, updated_at, server_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			year = excluded.year,
			slug = excluded.slug,
			body = excluded.body,
			time_marker = excluded.time_marker,
			updated_at = excluded.updated_at,
			server_id = excluded.server_id`,
		n.ID, n.Year, n.Slug, n.Body, n.Time, n.CreatedAt, n.UpdatedAt, n.ServerID)
	if err != nil {
		return errors.Wrapf(classifyWriteErr(err), "saving note %s", n.ID)
	}

	return nil
}

// GetBookmark returns the bookmark with the given id, or nil if none exists
func GetBookmark(db *DB, id string) (*Bookmark, error) {
	var b Bookmark
	err := db.QueryRow("SELECT id, year, slug, type, status, watch_later, priority, created_at, updated_at, server_id FROM bookmarks WHERE id = ?", id).
		Scan(&b.ID, &b.Year, &b.Slug, &b.Type, &b.Status, &b.WatchLater, &b.Priority, &b.CreatedAt, &b.UpdatedAt, &b.ServerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting bookmark %s", id)
	}

	return &b, nil
}

// GetNote returns the note with the given id, or nil if none exists
func GetNote(db *DB, id string) (*Note, error) {
	var n Note
	err := db.QueryRow("SELECT id, year, slug, body, time_marker, created_at, updated_at, server_id FROM notes WHERE id = ?", id).
		Scan(&n.ID, &n.Year, &n.Slug, &n.Body, &n.Time, &n.CreatedAt, &n.UpdatedAt, &n.ServerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting note %s", id)
	}

	return &n, nil
}

// GetAllBookmarks returns all bookmarks, optionally filtered to a year when
// year is nonzero. It degrades to an empty list when the backing store is
// unavailable, logging a warning instead of failing the caller.
func GetAllBookmarks(db *DB, year int) []Bookmark {
	query := "SELECT id, year, slug, type, status, watch_later, priority, created_at, updated_at, server_id FROM bookmarks"
	var args []interface{}
	if year != 0 {
		query += " WHERE year = ?"
		args = append(args, year)
	}
	query += " ORDER BY created_at"

	rows, err := db.Query(query, args...)
	if err != nil {
		log.Warnf("reading bookmarks: %v\n", err)
		return nil
	}
	defer rows.Close()

	var ret []Bookmark
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.ID, &b.Year, &b.Slug, &b.Type, &b.Status, &b.WatchLater, &b.Priority, &b.CreatedAt, &b.UpdatedAt, &b.ServerID); err != nil {
			log.Warnf("scanning a bookmark row: %v\n", err)
			continue
		}
		ret = append(ret, b)
	}

	return ret
}

// GetAllNotes returns all notes, optionally filtered to a year when year is
// nonzero. Records failing validation are treated as corrupt: they are
// excluded from the result and opportunistically deleted from the store.
func GetAllNotes(db *DB, year int) []Note {
	query := "SELECT id, year, slug, body, time_marker, created_at, updated_at, server_id FROM notes"
	var args []interface{}
	if year != 0 {
		query += " WHERE year = ?"
		args = append(args, year)
	}
	query += " ORDER BY created_at"

	rows, err := db.Query(query, args...)
	if err != nil {
		log.Warnf("reading notes: %v\n", err)
		return nil
	}
	defer rows.Close()

	var ret []Note
	var corrupt []string
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Year, &n.Slug, &n.Body, &n.Time, &n.CreatedAt, &n.UpdatedAt, &n.ServerID); err != nil {
			log.Warnf("scanning a note row: %v\n", err)
			continue
		}

		if err := validate.Note(n.Year, n.Slug, n.Body); err != nil {
			log.Warnf("skipping corrupt note %s: %v\n", n.ID, err)
			corrupt = append(corrupt, n.ID)
			continue
		}

		ret = append(ret, n)
	}
	rows.Close()

	// best-effort cleanup of the corrupt rows
	for _, id := range corrupt {
		if _, err := db.Exec("DELETE FROM notes WHERE id = ?", id); err != nil {
			log.Warnf("deleting corrupt note %s: %v\n", id, err)
		}
	}

	return ret
}

// ExpungeBookmark hard-deletes the bookmark with the given id. It reports
// whether a record existed and was removed.
func ExpungeBookmark(db *DB, id string) (bool, error) {
	result, err := db.Exec("DELETE FROM bookmarks WHERE id = ?", id)
	if err != nil {
		return false, errors.Wrapf(err, "expunging bookmark %s", id)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "counting expunged bookmarks")
	}

	return n > 0, nil
}

// ExpungeNote hard-deletes the note with the given id. It reports whether a
// record existed and was removed.
func ExpungeNote(db *DB, id string) (bool, error) {
	result, err := db.Exec("DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return false, errors.Wrapf(err, "expunging note %s", id)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "counting expunged notes")
	}

	return n > 0, nil
}
