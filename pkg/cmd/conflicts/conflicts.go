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

package conflicts

import (
	"github.com/convene/convene/pkg/context"
	"github.com/convene/convene/pkg/infra"
	"github.com/convene/convene/pkg/log"
	"github.com/convene/convene/pkg/reconcile"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  convene conflicts --year 2026`

var yearFlag int

// NewCmd returns a new conflicts command
func NewCmd(ctx context.ConveneCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conflicts",
		Short:   "List divergences between the local store and the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.IntVar(&yearFlag, "year", 0, "the conference year to reconcile (defaults to all years)")

	return cmd
}

func newRun(ctx context.ConveneCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		bookmarkConflicts, err := reconcile.ListBookmarkConflicts(ctx, yearFlag)
		if err != nil {
			return errors.Wrap(err, "reconciling bookmarks")
		}
		noteConflicts, err := reconcile.ListNoteConflicts(ctx, yearFlag)
		if err != nil {
			return errors.Wrap(err, "reconciling notes")
		}

		if len(bookmarkConflicts) == 0 && len(noteConflicts) == 0 {
			log.Successf("local store and server agree\n")
			return nil
		}

		for _, c := range bookmarkConflicts {
			log.Plainf("bookmark %s: %s\n", c.Slug, c.Kind)
		}
		for _, c := range noteConflicts {
			log.Plainf("note %s: %s\n", c.Slug, c.Kind)
			if c.Kind == reconcile.KindMismatch {
				log.Plainf("%s", c.Diff)
			}
		}

		return nil
	}
}
