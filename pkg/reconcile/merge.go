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

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	markerLocal     = "<<<<<<< Local\n"
	markerSeparator = "=======\n"
	markerServer    = ">>>>>>> Server\n"
)

// RenderBodyConflict renders the two diverging bodies of a note mismatch as
// a single annotated text. Shared passages appear once; diverging passages
// appear in a marked local/server block. The rendering is line-based.
func RenderBodyConflict(local, server string) string {
	dmp := diffmatchpatch.New()

	localChars, serverChars, lines := dmp.DiffLinesToChars(local, server)
	diffs := dmp.DiffMain(localChars, serverChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var ret, localBlock, serverBlock strings.Builder

	flush := func() {
		if localBlock.Len() == 0 && serverBlock.Len() == 0 {
			return
		}

		ret.WriteString(markerLocal)
		ret.WriteString(localBlock.String())
		ret.WriteString(markerSeparator)
		ret.WriteString(serverBlock.String())
		ret.WriteString(markerServer)

		localBlock.Reset()
		serverBlock.Reset()
	}

	// marked blocks need their content newline-terminated even when the
	// source text ends without one
	writeBlock := func(b *strings.Builder, text string) {
		b.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			b.WriteString("\n")
		}
	}

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			ret.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			writeBlock(&localBlock, d.Text)
		case diffmatchpatch.DiffInsert:
			writeBlock(&serverBlock, d.Text)
		}
	}
	flush()

	return ret.String()
}
