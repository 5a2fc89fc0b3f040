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

package reconcile

import (
	"strings"
	"testing"

	"github.com/convene/convene/pkg/assert"
	"github.com/convene/convene/pkg/client"
	"github.com/convene/convene/pkg/database"
)

func emptyPending() database.PendingSync {
	return database.PendingSync{
		IDs:       map[string]bool{},
		ServerIDs: map[int64]bool{},
	}
}

func TestBookmarks_agreement(t *testing.T) {
	local := []database.Bookmark{
		{ID: "2026-a", Slug: "a", Status: database.StatusFavourited, ServerID: 1},
	}
	server := []client.RespBookmark{
		{ID: 1, Slug: "a", Status: database.StatusFavourited},
	}

	got := Bookmarks(local, server, emptyPending())

	assert.Equal(t, len(got), 0, "agreeing sets must yield no conflicts")
}

func TestBookmarks_localOnly(t *testing.T) {
	local := []database.Bookmark{
		{ID: "2026-a", Slug: "a", Status: database.StatusFavourited},
	}

	got := Bookmarks(local, nil, emptyPending())

	assert.Equal(t, len(got), 1, "conflict count mismatch")
	assert.Equal(t, got[0].Kind, KindLocalOnly, "kind mismatch")
	assert.Equal(t, got[0].Slug, "a", "slug mismatch")
	assert.Equal(t, got[0].Local.ID, "2026-a", "local record mismatch")
}

func TestBookmarks_serverOnly(t *testing.T) {
	server := []client.RespBookmark{
		{ID: 9, Slug: "b", Status: database.StatusFavourited},
	}

	got := Bookmarks(nil, server, emptyPending())

	assert.Equal(t, len(got), 1, "conflict count mismatch")
	assert.Equal(t, got[0].Kind, KindServerOnly, "kind mismatch")
	assert.Equal(t, got[0].Server.ID, int64(9), "server record mismatch")
}

func TestBookmarks_mismatch(t *testing.T) {
	local := []database.Bookmark{
		{ID: "2026-a", Slug: "a", Status: database.StatusFavourited, ServerID: 1},
	}
	server := []client.RespBookmark{
		{ID: 1, Slug: "a", Status: database.StatusUnfavourited},
	}

	got := Bookmarks(local, server, emptyPending())

	assert.Equal(t, len(got), 1, "conflict count mismatch")
	assert.Equal(t, got[0].Kind, KindMismatch, "kind mismatch")
	assert.Equal(t, got[0].Local.Status, database.StatusFavourited, "local status mismatch")
	assert.Equal(t, got[0].Server.Status, database.StatusUnfavourited, "server status mismatch")
}

func TestBookmarks_suppressesPending(t *testing.T) {
	// Setup
	local := []database.Bookmark{
		{ID: "2026-queued", Slug: "queued", Status: database.StatusFavourited},
		{ID: "2026-stale", Slug: "stale", Status: database.StatusFavourited},
	}
	server := []client.RespBookmark{
		{ID: 3, Slug: "queued-remote", Status: database.StatusFavourited},
	}
	pending := database.PendingSync{
		IDs:       map[string]bool{"2026-queued": true},
		ServerIDs: map[int64]bool{3: true},
	}

	// Execute
	got := Bookmarks(local, server, pending)

	// Test: only the record with no pending queue item surfaces
	assert.Equal(t, len(got), 1, "conflict count mismatch")
	assert.Equal(t, got[0].Slug, "stale", "slug mismatch")
	assert.Equal(t, got[0].Kind, KindLocalOnly, "kind mismatch")
}

func TestNotes_classification(t *testing.T) {
	// Setup
	local := []database.Note{
		{ID: "2026-a-100", Slug: "a", Time: "12:30", Body: "same body"},
		{ID: "2026-b-200", Slug: "b", Time: "", Body: "local body"},
		{ID: "2026-c-300", Slug: "c", Time: "", Body: "only here"},
	}
	server := []client.RespNote{
		{ID: 1, Slug: "a", Time: "12:30", Body: "same body"},
		{ID: 2, Slug: "b", Time: "", Body: "server body"},
		{ID: 4, Slug: "d", Time: "", Body: "only there"},
	}

	// Execute
	got := Notes(local, server, emptyPending())

	// Test
	assert.Equal(t, len(got), 3, "conflict count mismatch")

	assert.Equal(t, got[0].Kind, KindMismatch, "b kind mismatch")
	assert.Equal(t, got[0].Slug, "b", "b slug mismatch")
	if !strings.Contains(got[0].Diff, "local body") || !strings.Contains(got[0].Diff, "server body") {
		t.Errorf("diff must contain both bodies. Got:\n%s", got[0].Diff)
	}

	assert.Equal(t, got[1].Kind, KindLocalOnly, "c kind mismatch")
	assert.Equal(t, got[1].Slug, "c", "c slug mismatch")

	assert.Equal(t, got[2].Kind, KindServerOnly, "d kind mismatch")
	assert.Equal(t, got[2].Slug, "d", "d slug mismatch")
}

func TestNotes_suppressesPending(t *testing.T) {
	local := []database.Note{
		{ID: "2026-a-100", Slug: "a", Body: "local body"},
	}
	server := []client.RespNote{
		{ID: 7, Slug: "a", Body: "server body"},
	}
	pending := database.PendingSync{
		IDs:       map[string]bool{"2026-a-100": true},
		ServerIDs: map[int64]bool{7: true},
	}

	got := Notes(local, server, pending)

	assert.Equal(t, len(got), 0, "pending records must not surface as conflicts")
}

func TestRenderBodyConflict(t *testing.T) {
	t.Run("identical bodies", func(t *testing.T) {
		got := RenderBodyConflict("foo\nbar\n", "foo\nbar\n")
		assert.Equal(t, got, "foo\nbar\n", "identical bodies must render unchanged")
	})

	t.Run("fully diverged bodies", func(t *testing.T) {
		got := RenderBodyConflict("foo-local", "foo-server")

		expected := `<<<<<<< Local
foo-local
=======
foo-server
>>>>>>> Server
`
		assert.Equal(t, got, expected, "rendering mismatch")
	})

	t.Run("partially diverged bodies", func(t *testing.T) {
		got := RenderBodyConflict("shared\nlocal line\n", "shared\nserver line\n")

		expected := `shared
<<<<<<< Local
local line
=======
server line
>>>>>>> Server
`
		assert.Equal(t, got, expected, "rendering mismatch")
	})
}
