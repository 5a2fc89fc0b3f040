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

// Package validate provides validation rules for local records
package validate

import (
	"github.com/pkg/errors"
)

var (
	// ErrYearInvalid is an error for a record missing a usable year
	ErrYearInvalid = errors.New("year must be a positive number")
	// ErrSlugEmpty is an error for a record missing a slug
	ErrSlugEmpty = errors.New("slug is empty")
	// ErrNoteBodyMissing is an error for a note without a body
	ErrNoteBodyMissing = errors.New("note body is missing")
	// ErrBookmarkTypeInvalid is an error for an unknown bookmark type
	ErrBookmarkTypeInvalid = errors.New("bookmark type must be event or track")
	// ErrBookmarkStatusInvalid is an error for an unknown bookmark status
	ErrBookmarkStatusInvalid = errors.New("bookmark status must be favourited or unfavourited")
)

// Note validates the identifying fields and body of a note record.
// A record failing these rules must not be persisted; one read back from the
// store failing them is corrupt.
func Note(year int, slug, body string) error {
	if year <= 0 {
		return ErrYearInvalid
	}
	if slug == "" {
		return ErrSlugEmpty
	}
	if body == "" {
		return ErrNoteBodyMissing
	}

	return nil
}

// Bookmark validates the identifying fields of a bookmark record
func Bookmark(year int, slug, typ, status string) error {
	if year <= 0 {
		return ErrYearInvalid
	}
	if slug == "" {
		return ErrSlugEmpty
	}
	if typ != "event" && typ != "track" {
		return ErrBookmarkTypeInvalid
	}
	if status != "favourited" && status != "unfavourited" {
		return ErrBookmarkStatusInvalid
	}

	return nil
}
