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

// Package syncer drains the pending mutation queue against the remote API and
// provides the local write-through mutation and conflict-resolution operations
package syncer

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/convene/convene/pkg/client"
	"github.com/convene/convene/pkg/consts"
	"github.com/convene/convene/pkg/context"
	"github.com/convene/convene/pkg/database"
	"github.com/convene/convene/pkg/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// Result is the aggregate outcome of a queue drain. Success is true iff no
// item failed; failed items stay queued for a future drain.
type Result struct {
	Success     bool
	SyncedCount int
	Errors      []string
}

var syncGroup singleflight.Group

// bookmarkSyncMu serializes full-queue drains and individual resolution
// actions so that a resolution's read-modify-write cannot interleave with a
// background drain touching the same record.
var bookmarkSyncMu sync.Mutex

func withBookmarkSyncLock(fn func() error) error {
	bookmarkSyncMu.Lock()
	defer bookmarkSyncMu.Unlock()

	return fn()
}

// SyncAll drains the entire pending queue against the server. Overlapping
// calls are collapsed: a caller requesting a sync while one is already in
// flight receives the in-flight run's result rather than starting a second
// concurrent drain.
func SyncAll(ctx context.ConveneCtx) (Result, error) {
	v, err, _ := syncGroup.Do("sync-all", func() (interface{}, error) {
		var ret Result

		err := withBookmarkSyncLock(func() error {
			r, err := drainQueue(ctx)
			if err != nil {
				return err
			}

			ret = r
			return nil
		})

		return ret, err
	})
	if err != nil {
		return Result{}, err
	}

	return v.(Result), nil
}

// drainQueue processes every pending item independently: one item's failure
// never blocks or reorders the items after it.
func drainQueue(ctx context.ConveneCtx) (Result, error) {
	now := ctx.Clock.Now()

	items, err := database.DrainSyncQueue(ctx.DB, now)
	if err != nil {
		return Result{}, errors.Wrap(err, "draining the sync queue")
	}

	log.Debug("processing %d queue items\n", len(items))

	ret := Result{Success: true}
	for _, item := range items {
		err := processItem(ctx, item)

		if err != nil && client.IsNotFound(err) {
			// the referenced remote entity no longer exists, so the queued
			// change is moot
			log.Debug("remote entity for %s is gone; dropping queue item\n", item.ID)
			err = nil
		}

		if err != nil {
			ret.Success = false
			ret.Errors = append(ret.Errors, err.Error())

			// advance the retry counter so an item that keeps failing is
			// eventually evicted instead of retried forever
			if err := database.BumpSyncItemRetry(ctx.DB, item.ID, now); err != nil {
				log.Warnf("%v\n", err)
			}

			continue
		}

		if err := database.RemoveSyncItem(ctx.DB, item.ID); err != nil {
			ret.Success = false
			ret.Errors = append(ret.Errors, err.Error())
			continue
		}

		ret.SyncedCount++
	}

	// only a fully clean drain counts as a sync for status purposes
	if ret.Success {
		if err := recordLastSync(ctx.DB, now); err != nil {
			log.Warnf("recording last sync time: %v\n", err)
		}
	}

	return ret, nil
}

func recordLastSync(db *database.DB, now time.Time) error {
	val := strconv.FormatInt(now.Unix(), 10)

	if err := db.InitSystemKV(consts.SystemLastSyncAt, val); err != nil {
		return errors.Wrap(err, "initializing last sync time")
	}
	if err := db.UpdateSystem(consts.SystemLastSyncAt, val); err != nil {
		return errors.Wrap(err, "updating last sync time")
	}

	return nil
}

func processItem(ctx context.ConveneCtx, item database.SyncQueueItem) error {
	switch item.Type {
	case database.KindBookmark:
		return processBookmarkItem(ctx, item)
	case database.KindNote:
		return processNoteItem(ctx, item)
	}

	return errors.Errorf("unknown record kind %q for queue item %s", item.Type, item.ID)
}

func processBookmarkItem(ctx context.ConveneCtx, item database.SyncQueueItem) error {
	var b database.Bookmark
	if err := json.Unmarshal([]byte(item.Data), &b); err != nil {
		return errors.Wrapf(err, "decoding queue payload for %s", item.ID)
	}

	switch item.Action {
	case database.ActionCreate:
		return createRemoteBookmark(ctx, b)
	case database.ActionUpdate:
		// if the record was never confirmed to exist server-side, fall back
		// to a remote create
		if b.ServerID == 0 {
			return createRemoteBookmark(ctx, b)
		}

		return callWithRetry(ctx, func() error {
			status := b.Status
			watchLater := b.WatchLater
			priority := b.Priority
			_, err := client.UpdateBookmark(ctx, b.ServerID, client.UpdateBookmarkParams{
				Status:     &status,
				WatchLater: &watchLater,
				Priority:   &priority,
			})
			return err
		})
	case database.ActionDelete:
		// no server row to delete
		if b.ServerID == 0 {
			return nil
		}

		return callWithRetry(ctx, func() error {
			_, err := client.DeleteBookmark(ctx, b.ServerID)
			return err
		})
	}

	return errors.Errorf("unknown action %q for queue item %s", item.Action, item.ID)
}

// createRemoteBookmark uploads the bookmark and attaches the resulting server
// id to the local record
func createRemoteBookmark(ctx context.ConveneCtx, b database.Bookmark) error {
	var resp client.CreateBookmarkResp
	err := callWithRetry(ctx, func() error {
		r, err := client.CreateBookmark(ctx, client.CreateBookmarkParams{
			Year:       b.Year,
			Type:       b.Type,
			Slug:       b.Slug,
			Status:     b.Status,
			WatchLater: b.WatchLater,
			Priority:   b.Priority,
		})
		if err != nil {
			return err
		}

		resp = r
		return nil
	})
	if err != nil {
		return err
	}

	local, err := database.GetBookmark(ctx.DB, b.ID)
	if err != nil {
		return errors.Wrap(err, "reading local bookmark after upload")
	}
	// the local record may have been removed while the upload was in flight
	if local == nil {
		return nil
	}

	local.ServerID = resp.Result.ID
	if err := local.Save(ctx.DB); err != nil {
		return errors.Wrapf(err, "attaching server id to bookmark %s", b.ID)
	}

	return nil
}

func processNoteItem(ctx context.ConveneCtx, item database.SyncQueueItem) error {
	var n database.Note
	if err := json.Unmarshal([]byte(item.Data), &n); err != nil {
		return errors.Wrapf(err, "decoding queue payload for %s", item.ID)
	}

	switch item.Action {
	case database.ActionCreate:
		return createRemoteNote(ctx, n)
	case database.ActionUpdate:
		if n.ServerID == 0 {
			return createRemoteNote(ctx, n)
		}

		return callWithRetry(ctx, func() error {
			body := n.Body
			marker := n.Time
			_, err := client.UpdateNote(ctx, n.ServerID, client.UpdateNoteParams{
				Note: &body,
				Time: &marker,
			})
			return err
		})
	case database.ActionDelete:
		if n.ServerID == 0 {
			return nil
		}

		return callWithRetry(ctx, func() error {
			_, err := client.DeleteNote(ctx, n.ServerID)
			return err
		})
	}

	return errors.Errorf("unknown action %q for queue item %s", item.Action, item.ID)
}

func createRemoteNote(ctx context.ConveneCtx, n database.Note) error {
	var resp client.CreateNoteResp
	err := callWithRetry(ctx, func() error {
		r, err := client.CreateNote(ctx, client.CreateNoteParams{
			Year: n.Year,
			Slug: n.Slug,
			Note: n.Body,
			Time: n.Time,
		})
		if err != nil {
			return err
		}

		resp = r
		return nil
	})
	if err != nil {
		return err
	}

	local, err := database.GetNote(ctx.DB, n.ID)
	if err != nil {
		return errors.Wrap(err, "reading local note after upload")
	}
	if local == nil {
		return nil
	}

	local.ServerID = resp.Result.ID
	if err := local.Save(ctx.DB); err != nil {
		return errors.Wrapf(err, "attaching server id to note %s", n.ID)
	}

	return nil
}
