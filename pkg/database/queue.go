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
	"encoding/json"
	"time"

	"github.com/convene/convene/pkg/log"
	"github.com/pkg/errors"
)

// Queue actions
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

const (
	// SyncQueueTTL bounds how long a queue item may wait before it is given
	// up on, regardless of how few attempts it has seen.
	SyncQueueTTL = 7 * 24 * time.Hour
	// SyncQueueMaxRetries bounds how many times a logical change may be
	// re-queued, regardless of how recent it is. Together the two bounds cap
	// worst-case unsynced-data retention at a week or ten attempts.
	SyncQueueMaxRetries = 10
)

// SyncQueueItem is a pending local mutation awaiting upload. Its id matches
// the id of the local record it targets, so at most one item is pending per
// record.
type SyncQueueItem struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Action      string `json:"action"`
	Data        string `json:"data"`
	Timestamp   int64  `json:"timestamp"`
	RetryCount  int    `json:"retryCount"`
	LastAttempt int64  `json:"lastAttempt"`
}

// EnqueueSyncItem inserts the pending mutation, or, if an item with the same
// id already exists, replaces its action and payload while bumping the retry
// counter of the previous item.
func EnqueueSyncItem(db *DB, item SyncQueueItem, now time.Time) error {
	var retryCount int
	err := db.QueryRow("SELECT retry_count FROM sync_queue WHERE id = ?", item.ID).Scan(&retryCount)
	if err != nil && err != sql.ErrNoRows {
		return errors.Wrapf(err, "checking for a pending item for %s", item.ID)
	}

	if err == sql.ErrNoRows {
		item.RetryCount = 0
		item.LastAttempt = 0
		item.Timestamp = now.UnixMilli()

		if _, err := db.Exec("INSERT INTO sync_queue (id, type, action, data, timestamp, retry_count, last_attempt) VALUES (?, ?, ?, ?, ?, ?, ?)",
			item.ID, item.Type, item.Action, item.Data, item.Timestamp, item.RetryCount, item.LastAttempt); err != nil {
			return errors.Wrapf(classifyWriteErr(err), "inserting queue item for %s", item.ID)
		}

		return nil
	}

	item.RetryCount = retryCount + 1
	item.LastAttempt = now.UnixMilli()
	item.Timestamp = now.UnixMilli()

	if _, err := db.Exec("UPDATE sync_queue SET type = ?, action = ?, data = ?, timestamp = ?, retry_count = ?, last_attempt = ? WHERE id = ?",
		item.Type, item.Action, item.Data, item.Timestamp, item.RetryCount, item.LastAttempt, item.ID); err != nil {
		return errors.Wrapf(classifyWriteErr(err), "replacing queue item for %s", item.ID)
	}

	return nil
}

// DrainSyncQueue returns all pending non-expired items in insertion order.
// Expired items, those older than SyncQueueTTL or re-queued SyncQueueMaxRetries
// times, are evicted from the store as a side effect. The local record is not
// rolled back on eviction; the next reconciliation pass surfaces it as a
// conflict instead.
func DrainSyncQueue(db *DB, now time.Time) ([]SyncQueueItem, error) {
	rows, err := db.Query("SELECT id, type, action, data, timestamp, retry_count, last_attempt FROM sync_queue ORDER BY timestamp")
	if err != nil {
		return nil, errors.Wrap(err, "reading the sync queue")
	}
	defer rows.Close()

	var ret []SyncQueueItem
	var expired []string
	for rows.Next() {
		var item SyncQueueItem
		if err := rows.Scan(&item.ID, &item.Type, &item.Action, &item.Data, &item.Timestamp, &item.RetryCount, &item.LastAttempt); err != nil {
			return nil, errors.Wrap(err, "scanning a queue item")
		}

		age := now.Sub(time.UnixMilli(item.Timestamp))
		if age > SyncQueueTTL || item.RetryCount >= SyncQueueMaxRetries {
			expired = append(expired, item.ID)
			continue
		}

		ret = append(ret, item)
	}
	rows.Close()

	for _, id := range expired {
		log.Debug("evicting expired queue item %s\n", id)
		if _, err := db.Exec("DELETE FROM sync_queue WHERE id = ?", id); err != nil {
			return nil, errors.Wrapf(err, "evicting expired queue item %s", id)
		}
	}

	return ret, nil
}

// BumpSyncItemRetry records a failed upload attempt for the queue item. The
// retry counter drives eviction: once it reaches SyncQueueMaxRetries the item
// is given up on during the next drain.
func BumpSyncItemRetry(db *DB, id string, now time.Time) error {
	if _, err := db.Exec("UPDATE sync_queue SET retry_count = retry_count + 1, last_attempt = ? WHERE id = ?",
		now.UnixMilli(), id); err != nil {
		return errors.Wrapf(err, "recording failed attempt for %s", id)
	}

	return nil
}

// RemoveSyncItem deletes the pending item for the given record id, if any
func RemoveSyncItem(db *DB, id string) error {
	if _, err := db.Exec("DELETE FROM sync_queue WHERE id = ?", id); err != nil {
		return errors.Wrapf(err, "removing queue item for %s", id)
	}

	return nil
}

// CountSyncItems returns the number of pending queue items
func CountSyncItems(db *DB) (int, error) {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM sync_queue").Scan(&count); err != nil {
		return 0, errors.Wrap(err, "counting queue items")
	}

	return count, nil
}

// PendingSync describes the records currently mid-flight in the queue for one
// record kind. Reconciliation suppresses conflicts for these: an item pending
// sync is not yet a conflict.
type PendingSync struct {
	IDs       map[string]bool
	ServerIDs map[int64]bool
}

// GetPendingSync collects the local ids and known server ids referenced by
// pending queue items of the given record kind.
func GetPendingSync(db *DB, kind string) (PendingSync, error) {
	ret := PendingSync{
		IDs:       map[string]bool{},
		ServerIDs: map[int64]bool{},
	}

	rows, err := db.Query("SELECT id, data FROM sync_queue WHERE type = ?", kind)
	if err != nil {
		return ret, errors.Wrap(err, "reading pending queue items")
	}
	defer rows.Close()

	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return ret, errors.Wrap(err, "scanning a pending queue item")
		}

		ret.IDs[id] = true

		var payload struct {
			ServerID int64 `json:"serverId"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			log.Debug("skipping malformed queue payload for %s: %v\n", id, err)
			continue
		}
		if payload.ServerID != 0 {
			ret.ServerIDs[payload.ServerID] = true
		}
	}

	return ret, nil
}
