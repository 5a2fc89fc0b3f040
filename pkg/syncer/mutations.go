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
	"encoding/json"

	"github.com/convene/convene/pkg/context"
	"github.com/convene/convene/pkg/database"
	"github.com/convene/convene/pkg/validate"
	"github.com/pkg/errors"
)

// SaveBookmark persists the bookmark locally and, when sync is enabled,
// queues the change for upload. The local write always completes before the
// queue write, so a crash between the two leaves the local data correct but
// unsynced, never the reverse.
func SaveBookmark(ctx context.ConveneCtx, b database.Bookmark) (database.Bookmark, error) {
	if err := validate.Bookmark(b.Year, b.Slug, b.Type, b.Status); err != nil {
		return b, errors.Wrap(err, "validating bookmark")
	}

	now := ctx.Clock.Now()

	if b.ID == "" {
		b.ID = database.BookmarkID(b.Year, b.Slug)
	}

	existing, err := database.GetBookmark(ctx.DB, b.ID)
	if err != nil {
		return b, errors.Wrap(err, "looking up existing bookmark")
	}
	if existing != nil {
		if b.CreatedAt == 0 {
			b.CreatedAt = existing.CreatedAt
		}
		if b.ServerID == 0 {
			b.ServerID = existing.ServerID
		}
	}
	if b.CreatedAt == 0 {
		b.CreatedAt = now.UnixMilli()
	}
	b.UpdatedAt = now.UnixMilli()

	if err := b.Save(ctx.DB); err != nil {
		return b, errors.Wrap(err, "saving bookmark locally")
	}

	action := database.ActionCreate
	if b.ServerID != 0 {
		action = database.ActionUpdate
	}
	if err := maybeEnqueue(ctx, database.KindBookmark, action, b.ID, b); err != nil {
		return b, errors.Wrap(err, "queueing bookmark for sync")
	}

	return b, nil
}

// RemoveBookmark deletes the bookmark locally and, when sync is enabled,
// queues a remote delete
func RemoveBookmark(ctx context.ConveneCtx, id string) error {
	b, err := database.GetBookmark(ctx.DB, id)
	if err != nil {
		return errors.Wrap(err, "looking up bookmark")
	}
	if b == nil {
		return nil
	}

	if _, err := database.ExpungeBookmark(ctx.DB, id); err != nil {
		return errors.Wrap(err, "removing bookmark locally")
	}

	if err := maybeEnqueue(ctx, database.KindBookmark, database.ActionDelete, id, *b); err != nil {
		return errors.Wrap(err, "queueing bookmark deletion for sync")
	}

	return nil
}

// SaveNote persists the note locally and, when sync is enabled, queues the
// change for upload. Validation failures reject the record before any
// persistence occurs.
func SaveNote(ctx context.ConveneCtx, n database.Note) (database.Note, error) {
	if err := validate.Note(n.Year, n.Slug, n.Body); err != nil {
		return n, errors.Wrap(err, "validating note")
	}

	now := ctx.Clock.Now()

	if n.CreatedAt == 0 {
		n.CreatedAt = now.UnixMilli()
	}
	if n.ID == "" {
		n.ID = database.NoteID(n.Year, n.Slug, n.CreatedAt)
	}

	existing, err := database.GetNote(ctx.DB, n.ID)
	if err != nil {
		return n, errors.Wrap(err, "looking up existing note")
	}
	if existing != nil && n.ServerID == 0 {
		n.ServerID = existing.ServerID
	}
	n.UpdatedAt = now.UnixMilli()

	if err := n.Save(ctx.DB); err != nil {
		return n, errors.Wrap(err, "saving note locally")
	}

	action := database.ActionCreate
	if n.ServerID != 0 {
		action = database.ActionUpdate
	}
	if err := maybeEnqueue(ctx, database.KindNote, action, n.ID, n); err != nil {
		return n, errors.Wrap(err, "queueing note for sync")
	}

	return n, nil
}

// RemoveNote deletes the note locally and, when sync is enabled, queues a
// remote delete
func RemoveNote(ctx context.ConveneCtx, id string) error {
	n, err := database.GetNote(ctx.DB, id)
	if err != nil {
		return errors.Wrap(err, "looking up note")
	}
	if n == nil {
		return nil
	}

	if _, err := database.ExpungeNote(ctx.DB, id); err != nil {
		return errors.Wrap(err, "removing note locally")
	}

	if err := maybeEnqueue(ctx, database.KindNote, database.ActionDelete, id, *n); err != nil {
		return errors.Wrap(err, "queueing note deletion for sync")
	}

	return nil
}

// maybeEnqueue records the pending mutation when sync is enabled. A user who
// has never authenticated keeps local-only state with no queue activity.
func maybeEnqueue(ctx context.ConveneCtx, kind, action, id string, record interface{}) error {
	enabled, err := ctx.DB.IsSyncEnabled()
	if err != nil {
		return errors.Wrap(err, "checking sync flag")
	}
	if !enabled {
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshaling queue payload")
	}

	item := database.SyncQueueItem{
		ID:     id,
		Type:   kind,
		Action: action,
		Data:   string(data),
	}
	if err := database.EnqueueSyncItem(ctx.DB, item, ctx.Clock.Now()); err != nil {
		return errors.Wrap(err, "enqueueing sync item")
	}

	return nil
}
