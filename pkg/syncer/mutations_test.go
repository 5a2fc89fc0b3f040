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
	"testing"

	"github.com/convene/convene/pkg/assert"
	"github.com/convene/convene/pkg/database"
	"github.com/pkg/errors"
)

func TestSaveBookmark_derivesID(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	ctx := newTestCtx(db, nil)

	// Execute
	saved, err := SaveBookmark(ctx, database.Bookmark{
		Year:   2026,
		Slug:   "go-generics-deep-dive",
		Type:   database.BookmarkTypeEvent,
		Status: database.StatusFavourited,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving"))
	}

	// Test
	assert.Equal(t, saved.ID, "2026-go-generics-deep-dive", "derived id mismatch")
	assert.Equal(t, saved.CreatedAt, ctx.Clock.Now().UnixMilli(), "created_at mismatch")
	assert.Equal(t, saved.UpdatedAt, ctx.Clock.Now().UnixMilli(), "updated_at mismatch")
}

func TestSaveBookmark_preservesExistingFields(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	ctx := newTestCtx(db, nil)

	existing := database.Bookmark{
		ID:        database.BookmarkID(2026, "go-generics-deep-dive"),
		Year:      2026,
		Slug:      "go-generics-deep-dive",
		Type:      database.BookmarkTypeEvent,
		Status:    database.StatusFavourited,
		CreatedAt: 1000,
		ServerID:  42,
	}
	if err := existing.Save(db); err != nil {
		t.Fatal(errors.Wrap(err, "saving fixture"))
	}

	// Execute: re-save the same logical bookmark with no knowledge of the
	// earlier sync state
	saved, err := SaveBookmark(ctx, database.Bookmark{
		Year:   2026,
		Slug:   "go-generics-deep-dive",
		Type:   database.BookmarkTypeEvent,
		Status: database.StatusUnfavourited,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving"))
	}

	// Test
	assert.Equal(t, saved.CreatedAt, int64(1000), "created_at must carry over")
	assert.Equal(t, saved.ServerID, int64(42), "server id must carry over")
	assert.Equal(t, saved.Status, database.StatusUnfavourited, "status mismatch")

	var count int
	database.MustScan(t, "counting bookmarks", db.QueryRow("SELECT count(*) FROM bookmarks"), &count)
	assert.Equal(t, count, 1, "re-saving must not duplicate")
}

func TestSaveBookmark_queueAction(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	mustEnableSync(t, db)
	ctx := newTestCtx(db, nil)

	// Execute: first save has no server id, second save does
	first, err := SaveBookmark(ctx, database.Bookmark{
		Year:   2026,
		Slug:   "go-generics-deep-dive",
		Type:   database.BookmarkTypeEvent,
		Status: database.StatusFavourited,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving first"))
	}

	var action string
	database.MustScan(t, "reading queue action",
		db.QueryRow("SELECT action FROM sync_queue WHERE id = ?", first.ID), &action)
	assert.Equal(t, action, database.ActionCreate, "an unsynced record queues a create")

	synced := first
	synced.ServerID = 42
	if err := synced.Save(db); err != nil {
		t.Fatal(errors.Wrap(err, "attaching server id"))
	}

	if _, err := SaveBookmark(ctx, database.Bookmark{
		Year:   2026,
		Slug:   "go-generics-deep-dive",
		Type:   database.BookmarkTypeEvent,
		Status: database.StatusUnfavourited,
	}); err != nil {
		t.Fatal(errors.Wrap(err, "saving second"))
	}

	// Test
	database.MustScan(t, "reading queue action",
		db.QueryRow("SELECT action FROM sync_queue WHERE id = ?", first.ID), &action)
	assert.Equal(t, action, database.ActionUpdate, "a synced record queues an update")

	var count int
	database.MustScan(t, "counting queue items", db.QueryRow("SELECT count(*) FROM sync_queue"), &count)
	assert.Equal(t, count, 1, "the queue item must be replaced, not duplicated")
}

func TestSaveBookmark_syncDisabled(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	ctx := newTestCtx(db, nil)

	// Execute
	if _, err := SaveBookmark(ctx, database.Bookmark{
		Year:   2026,
		Slug:   "go-generics-deep-dive",
		Type:   database.BookmarkTypeEvent,
		Status: database.StatusFavourited,
	}); err != nil {
		t.Fatal(errors.Wrap(err, "saving"))
	}

	// Test
	pending, err := database.CountSyncItems(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting queue items"))
	}
	assert.Equal(t, pending, 0, "no queue activity while sync is disabled")
}

func TestSaveBookmark_rejectsInvalid(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	ctx := newTestCtx(db, nil)

	// Execute
	_, err := SaveBookmark(ctx, database.Bookmark{
		Year:   2026,
		Slug:   "go-generics-deep-dive",
		Type:   "workshop",
		Status: database.StatusFavourited,
	})

	// Test
	if err == nil {
		t.Fatal("expected a validation error")
	}

	var count int
	database.MustScan(t, "counting bookmarks", db.QueryRow("SELECT count(*) FROM bookmarks"), &count)
	assert.Equal(t, count, 0, "an invalid bookmark must not be persisted")
}

func TestSaveBookmark_writeAhead(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	mustEnableSync(t, db)
	ctx := newTestCtx(db, nil)

	// break the queue so its write fails after the local write succeeded
	database.MustExec(t, "dropping the queue table", db, "DROP TABLE sync_queue")

	// Execute
	saved, err := SaveBookmark(ctx, database.Bookmark{
		Year:   2026,
		Slug:   "go-generics-deep-dive",
		Type:   database.BookmarkTypeEvent,
		Status: database.StatusFavourited,
	})

	// Test: the local record lands even when queueing fails
	if err == nil {
		t.Fatal("expected a queueing error")
	}

	got, err := database.GetBookmark(db, saved.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting bookmark"))
	}
	if got == nil {
		t.Fatal("the local write must complete before the queue write")
	}
	assert.Equal(t, got.Status, database.StatusFavourited, "status mismatch")
}

func TestSaveNote_derivesID(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	ctx := newTestCtx(db, nil)

	// Execute
	saved, err := SaveNote(ctx, database.Note{
		Year: 2026,
		Slug: "keynote",
		Body: "remember to ask about generics",
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving"))
	}

	// Test
	expectedID := database.NoteID(2026, "keynote", ctx.Clock.Now().UnixMilli())
	assert.Equal(t, saved.ID, expectedID, "derived id mismatch")
}

func TestRemoveNote_missing(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	mustEnableSync(t, db)
	ctx := newTestCtx(db, nil)

	// Execute
	if err := RemoveNote(ctx, "2026-nonexistent-100"); err != nil {
		t.Fatal(errors.Wrap(err, "removing"))
	}

	// Test: removing a record that never existed is a no-op
	pending, err := database.CountSyncItems(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting queue items"))
	}
	assert.Equal(t, pending, 0, "no queue activity for a missing record")
}

func TestRemoveBookmark_queuesDelete(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	mustEnableSync(t, db)
	ctx := newTestCtx(db, nil)

	b := database.Bookmark{
		ID:       database.BookmarkID(2026, "go-generics-deep-dive"),
		Year:     2026,
		Slug:     "go-generics-deep-dive",
		Type:     database.BookmarkTypeEvent,
		Status:   database.StatusFavourited,
		ServerID: 42,
	}
	if err := b.Save(db); err != nil {
		t.Fatal(errors.Wrap(err, "saving fixture"))
	}

	// Execute
	if err := RemoveBookmark(ctx, b.ID); err != nil {
		t.Fatal(errors.Wrap(err, "removing"))
	}

	// Test
	got, err := database.GetBookmark(db, b.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting bookmark"))
	}
	if got != nil {
		t.Fatal("the local record should be gone")
	}

	var action string
	database.MustScan(t, "reading queue action",
		db.QueryRow("SELECT action FROM sync_queue WHERE id = ?", b.ID), &action)
	assert.Equal(t, action, database.ActionDelete, "action mismatch")
}
