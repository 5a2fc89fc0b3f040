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

// Package reconcile computes the divergence between the local record set and
// the server record set for one conference year. Conflicts are recomputed
// fresh on every pass and never persisted.
package reconcile

import (
	"fmt"

	"github.com/convene/convene/pkg/client"
	"github.com/convene/convene/pkg/context"
	"github.com/convene/convene/pkg/database"
	"github.com/pkg/errors"
)

// Kind classifies a conflict
type Kind string

// Conflict kinds
const (
	KindLocalOnly  Kind = "local-only"
	KindServerOnly Kind = "server-only"
	KindMismatch   Kind = "mismatch"
)

// BookmarkConflict is one divergence between a local bookmark and the server
// copy sharing its slug
type BookmarkConflict struct {
	Kind   Kind
	Slug   string
	Local  *database.Bookmark
	Server *client.RespBookmark
}

// NoteConflict is one divergence between a local note and the server copy
// sharing its slug and time marker. For a mismatch, Diff carries a rendered
// local/server view of the diverging bodies.
type NoteConflict struct {
	Kind   Kind
	Slug   string
	Local  *database.Note
	Server *client.RespNote
	Diff   string
}

// Bookmarks computes the three-way bookmark diff. The local input must
// already be limited to favourited records. Records mid-flight in the sync
// queue are suppressed: an item pending sync is not yet a conflict. If that
// queue item later expires, the next pass surfaces the record as a genuine
// conflict.
func Bookmarks(local []database.Bookmark, server []client.RespBookmark, pending database.PendingSync) []BookmarkConflict {
	serverBySlug := map[string]client.RespBookmark{}
	for _, s := range server {
		serverBySlug[s.Slug] = s
	}

	localBySlug := map[string]bool{}
	for _, l := range local {
		localBySlug[l.Slug] = true
	}

	var ret []BookmarkConflict

	for i := range local {
		l := local[i]
		if pending.IDs[l.ID] {
			continue
		}

		s, ok := serverBySlug[l.Slug]
		if !ok {
			ret = append(ret, BookmarkConflict{Kind: KindLocalOnly, Slug: l.Slug, Local: &local[i]})
			continue
		}

		if l.Status != s.Status {
			srv := s
			ret = append(ret, BookmarkConflict{Kind: KindMismatch, Slug: l.Slug, Local: &local[i], Server: &srv})
		}
	}

	for i := range server {
		s := server[i]
		if pending.ServerIDs[s.ID] {
			continue
		}

		if !localBySlug[s.Slug] {
			ret = append(ret, BookmarkConflict{Kind: KindServerOnly, Slug: s.Slug, Server: &server[i]})
		}
	}

	return ret
}

// noteKey identifies a note for matching. Identity is slug-and-marker based
// rather than structural, because ids embed client-local creation times that
// the server does not share.
func noteKey(slug, marker string) string {
	return fmt.Sprintf("%s\x00%s", slug, marker)
}

// Notes computes the note diff. Two copies sharing a slug and time marker
// with identical bodies are the same note; with diverging bodies they are a
// mismatch. Everything else is local-only or server-only.
func Notes(local []database.Note, server []client.RespNote, pending database.PendingSync) []NoteConflict {
	serverByKey := map[string][]client.RespNote{}
	for _, s := range server {
		k := noteKey(s.Slug, s.Time)
		serverByKey[k] = append(serverByKey[k], s)
	}

	matchedServer := map[int64]bool{}

	var ret []NoteConflict

	for i := range local {
		l := local[i]
		if pending.IDs[l.ID] {
			continue
		}

		candidates := serverByKey[noteKey(l.Slug, l.Time)]

		var exact *client.RespNote
		for j := range candidates {
			if candidates[j].Body == l.Body && !matchedServer[candidates[j].ID] {
				exact = &candidates[j]
				break
			}
		}
		if exact != nil {
			matchedServer[exact.ID] = true
			continue
		}

		var diverged *client.RespNote
		for j := range candidates {
			if !matchedServer[candidates[j].ID] {
				diverged = &candidates[j]
				break
			}
		}
		if diverged != nil {
			matchedServer[diverged.ID] = true
			srv := *diverged
			ret = append(ret, NoteConflict{
				Kind:   KindMismatch,
				Slug:   l.Slug,
				Local:  &local[i],
				Server: &srv,
				Diff:   RenderBodyConflict(l.Body, srv.Body),
			})
			continue
		}

		ret = append(ret, NoteConflict{Kind: KindLocalOnly, Slug: l.Slug, Local: &local[i]})
	}

	for i := range server {
		s := server[i]
		if matchedServer[s.ID] || pending.ServerIDs[s.ID] {
			continue
		}

		ret = append(ret, NoteConflict{Kind: KindServerOnly, Slug: s.Slug, Server: &server[i]})
	}

	return ret
}

// ListBookmarkConflicts fetches the authoritative server set for the year and
// diffs it against the local favourited bookmarks
func ListBookmarkConflicts(ctx context.ConveneCtx, year int) ([]BookmarkConflict, error) {
	server, err := client.GetBookmarks(ctx, year)
	if err != nil {
		return nil, errors.Wrap(err, "fetching server bookmarks")
	}

	var local []database.Bookmark
	for _, b := range database.GetAllBookmarks(ctx.DB, year) {
		if b.Status == database.StatusFavourited {
			local = append(local, b)
		}
	}

	pending, err := database.GetPendingSync(ctx.DB, database.KindBookmark)
	if err != nil {
		return nil, errors.Wrap(err, "collecting pending queue ids")
	}

	return Bookmarks(local, server, pending), nil
}

// ListNoteConflicts fetches the authoritative server note set for the year
// and diffs it against the local notes
func ListNoteConflicts(ctx context.ConveneCtx, year int) ([]NoteConflict, error) {
	server, err := client.GetNotes(ctx, year)
	if err != nil {
		return nil, errors.Wrap(err, "fetching server notes")
	}

	local := database.GetAllNotes(ctx.DB, year)

	pending, err := database.GetPendingSync(ctx.DB, database.KindNote)
	if err != nil {
		return nil, errors.Wrap(err, "collecting pending queue ids")
	}

	return Notes(local, server, pending), nil
}
