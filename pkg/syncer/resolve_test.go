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
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/convene/convene/pkg/assert"
	"github.com/convene/convene/pkg/client"
	"github.com/convene/convene/pkg/database"
	"github.com/pkg/errors"
)

func TestPushLocalBookmark(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	mustEnableSync(t, db)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"id":900,"year":2026,"slug":"local-win","type":"event","status":"favourited"}}`)
	}))
	defer server.Close()

	ctx := newTestCtx(db, server)

	b, err := SaveBookmark(ctx, database.Bookmark{
		Year:   2026,
		Slug:   "local-win",
		Type:   database.BookmarkTypeEvent,
		Status: database.StatusFavourited,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving fixture"))
	}

	// Execute
	if err := PushLocalBookmark(ctx, b); err != nil {
		t.Fatal(errors.Wrap(err, "pushing"))
	}

	// Test
	got, err := database.GetBookmark(db, b.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting bookmark"))
	}
	assert.Equal(t, got.ServerID, int64(900), "server id mismatch")

	pending, err := database.CountSyncItems(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting queue items"))
	}
	assert.Equal(t, pending, 0, "resolving must clear the queue entry")
}

func TestDropLocalBookmark(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	mustEnableSync(t, db)
	ctx := newTestCtx(db, nil)

	b, err := SaveBookmark(ctx, database.Bookmark{
		Year:   2026,
		Slug:   "server-win",
		Type:   database.BookmarkTypeEvent,
		Status: database.StatusFavourited,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving fixture"))
	}

	// Execute
	if err := DropLocalBookmark(ctx, b.ID); err != nil {
		t.Fatal(errors.Wrap(err, "dropping"))
	}

	// Test
	got, err := database.GetBookmark(db, b.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting bookmark"))
	}
	if got != nil {
		t.Fatal("the local record should be gone")
	}

	pending, err := database.CountSyncItems(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting queue items"))
	}
	assert.Equal(t, pending, 0, "resolving must clear the queue entry")
}

func TestPullServerBookmark(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	ctx := newTestCtx(db, nil)

	server := client.RespBookmark{
		ID:     33,
		Year:   2026,
		Slug:   "heard-about-it",
		Type:   database.BookmarkTypeEvent,
		Status: database.StatusFavourited,
	}

	// Execute
	if err := PullServerBookmark(ctx, server); err != nil {
		t.Fatal(errors.Wrap(err, "pulling"))
	}

	// Test
	got, err := database.GetBookmark(db, database.BookmarkID(2026, "heard-about-it"))
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting bookmark"))
	}
	if got == nil {
		t.Fatal("the server record should land locally")
	}
	assert.Equal(t, got.ServerID, int64(33), "the pulled record must be marked synced")
}

func TestDropServerBookmark_toleratesNotFound(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such bookmark", http.StatusNotFound)
	}))
	defer server.Close()

	ctx := newTestCtx(db, server)

	// Execute
	err := DropServerBookmark(ctx, 999)

	// Test
	assert.Equal(t, err, nil, "a row already gone counts as resolved")
}

func TestPushLocalNote(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	mustEnableSync(t, db)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"id":71,"year":2026,"slug":"keynote","note":"my version"}}`)
	}))
	defer server.Close()

	ctx := newTestCtx(db, server)

	n, err := SaveNote(ctx, database.Note{
		Year: 2026,
		Slug: "keynote",
		Body: "my version",
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving fixture"))
	}

	// Execute
	if err := PushLocalNote(ctx, n); err != nil {
		t.Fatal(errors.Wrap(err, "pushing"))
	}

	// Test
	got, err := database.GetNote(db, n.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	assert.Equal(t, got.ServerID, int64(71), "server id mismatch")

	pending, err := database.CountSyncItems(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting queue items"))
	}
	assert.Equal(t, pending, 0, "resolving must clear the queue entry")
}

func TestPullServerNote(t *testing.T) {
	// Setup
	db := database.InitTestMemoryDB(t)
	ctx := newTestCtx(db, nil)

	server := client.RespNote{
		ID:        12,
		Year:      2026,
		Slug:      "keynote",
		Body:      "their version",
		CreatedAt: 5000,
	}

	// Execute
	if err := PullServerNote(ctx, server); err != nil {
		t.Fatal(errors.Wrap(err, "pulling"))
	}

	// Test
	got, err := database.GetNote(db, database.NoteID(2026, "keynote", 5000))
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	if got == nil {
		t.Fatal("the server record should land locally")
	}
	assert.Equal(t, got.Body, "their version", "body mismatch")
	assert.Equal(t, got.ServerID, int64(12), "the pulled record must be marked synced")
}
