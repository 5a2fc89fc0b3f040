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

package syncer

import (
	"github.com/convene/convene/pkg/client"
	"github.com/convene/convene/pkg/context"
	"github.com/convene/convene/pkg/database"
	"github.com/pkg/errors"
)

// Resolution actions operate on one conflict each. They all hold the bookmark
// sync lock so that a resolution's read-modify-write cannot interleave with a
// background drain touching the same record. Each action is idempotent.

// PushLocalBookmark uploads a local-only or mismatched bookmark to the
// server, attaches the resulting server id to the local record and clears any
// pending queue entry for it.
func PushLocalBookmark(ctx context.ConveneCtx, b database.Bookmark) error {
	return withBookmarkSyncLock(func() error {
		resp, err := client.CreateBookmark(ctx, client.CreateBookmarkParams{
			Year:       b.Year,
			Type:       b.Type,
			Slug:       b.Slug,
			Status:     b.Status,
			WatchLater: b.WatchLater,
			Priority:   b.Priority,
		})
		if err != nil {
			return errors.Wrap(err, "creating bookmark in the server")
		}

		b.ServerID = resp.Result.ID
		if err := b.Save(ctx.DB); err != nil {
			return errors.Wrap(err, "attaching server id to bookmark")
		}

		if err := database.RemoveSyncItem(ctx.DB, b.ID); err != nil {
			return errors.Wrap(err, "clearing queue entry")
		}

		return nil
	})
}

// DropLocalBookmark deletes a local-only or mismatched bookmark from the
// local store and clears any pending queue entry for it
func DropLocalBookmark(ctx context.ConveneCtx, id string) error {
	return withBookmarkSyncLock(func() error {
		if _, err := database.ExpungeBookmark(ctx.DB, id); err != nil {
			return errors.Wrap(err, "removing local bookmark")
		}

		if err := database.RemoveSyncItem(ctx.DB, id); err != nil {
			return errors.Wrap(err, "clearing queue entry")
		}

		return nil
	})
}

// PullServerBookmark writes a server-only bookmark into the local store,
// marked as already synced
func PullServerBookmark(ctx context.ConveneCtx, server client.RespBookmark) error {
	return withBookmarkSyncLock(func() error {
		b := server.ToLocalBookmark()
		if err := b.Save(ctx.DB); err != nil {
			return errors.Wrap(err, "saving server bookmark locally")
		}

		return nil
	})
}

// DropServerBookmark deletes a server-only bookmark from the server. A
// not-found response means the row is already gone and counts as success.
func DropServerBookmark(ctx context.ConveneCtx, serverID int64) error {
	return withBookmarkSyncLock(func() error {
		if _, err := client.DeleteBookmark(ctx, serverID); err != nil && !client.IsNotFound(err) {
			return errors.Wrap(err, "deleting bookmark in the server")
		}

		return nil
	})
}

// PushLocalNote uploads a local-only note to the server, attaches the
// resulting server id and clears any pending queue entry for it
func PushLocalNote(ctx context.ConveneCtx, n database.Note) error {
	return withBookmarkSyncLock(func() error {
		resp, err := client.CreateNote(ctx, client.CreateNoteParams{
			Year: n.Year,
			Slug: n.Slug,
			Note: n.Body,
			Time: n.Time,
		})
		if err != nil {
			return errors.Wrap(err, "creating note in the server")
		}

		n.ServerID = resp.Result.ID
		if err := n.Save(ctx.DB); err != nil {
			return errors.Wrap(err, "attaching server id to note")
		}

		if err := database.RemoveSyncItem(ctx.DB, n.ID); err != nil {
			return errors.Wrap(err, "clearing queue entry")
		}

		return nil
	})
}

// DropLocalNote deletes a local-only note and clears any pending queue entry
func DropLocalNote(ctx context.ConveneCtx, id string) error {
	return withBookmarkSyncLock(func() error {
		if _, err := database.ExpungeNote(ctx.DB, id); err != nil {
			return errors.Wrap(err, "removing local note")
		}

		if err := database.RemoveSyncItem(ctx.DB, id); err != nil {
			return errors.Wrap(err, "clearing queue entry")
		}

		return nil
	})
}

// PullServerNote writes a server-only note into the local store, marked as
// already synced
func PullServerNote(ctx context.ConveneCtx, server client.RespNote) error {
	return withBookmarkSyncLock(func() error {
		n := server.ToLocalNote()
		if err := n.Save(ctx.DB); err != nil {
			return errors.Wrap(err, "saving server note locally")
		}

		return nil
	})
}

// DropServerNote deletes a server-only note from the server, tolerating
// not-found as success
func DropServerNote(ctx context.ConveneCtx, serverID int64) error {
	return withBookmarkSyncLock(func() error {
		if _, err := client.DeleteNote(ctx, serverID); err != nil && !client.IsNotFound(err) {
			return errors.Wrap(err, "deleting note in the server")
		}

		return nil
	})
}
