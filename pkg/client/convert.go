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

package client

import (
	"github.com/convene/convene/pkg/database"
)

// ToLocalBookmark converts a server bookmark row into a local record marked
// as already synced
func (r RespBookmark) ToLocalBookmark() database.Bookmark {
	return database.Bookmark{
		ID:         database.BookmarkID(r.Year, r.Slug),
		Year:       r.Year,
		Slug:       r.Slug,
		Type:       r.Type,
		Status:     r.Status,
		WatchLater: r.WatchLater,
		Priority:   r.Priority,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		ServerID:   r.ID,
	}
}

// ToLocalNote converts a server note row into a local record marked as
// already synced
func (r RespNote) ToLocalNote() database.Note {
	return database.Note{
		ID:        database.NoteID(r.Year, r.Slug, r.CreatedAt),
		Year:      r.Year,
		Slug:      r.Slug,
		Body:      r.Body,
		Time:      r.Time,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		ServerID:  r.ID,
	}
}
