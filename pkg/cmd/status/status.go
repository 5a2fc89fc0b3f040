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

package status

import (
	"time"

	"github.com/convene/convene/pkg/consts"
	"github.com/convene/convene/pkg/context"
	"github.com/convene/convene/pkg/database"
	"github.com/convene/convene/pkg/infra"
	"github.com/convene/convene/pkg/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewCmd returns a new status command
func NewCmd(ctx context.ConveneCtx) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the sync state of the local store",
		RunE:  newRun(ctx),
	}
}

func newRun(ctx context.ConveneCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		db := ctx.DB

		enabled, err := db.IsSyncEnabled()
		if err != nil {
			return errors.Wrap(err, "checking sync preference")
		}

		pending, err := database.CountSyncItems(db)
		if err != nil {
			return errors.Wrap(err, "counting queued items")
		}

		var lastSyncAt int64
		if err := db.GetSystem(consts.SystemLastSyncAt, &lastSyncAt); err != nil {
			return errors.Wrap(err, "querying last sync time")
		}

		if enabled {
			log.Plainf("sync: on\n")
		} else {
			log.Plainf("sync: off\n")
		}
		log.Plainf("queued changes: %d\n", pending)

		if lastSyncAt == 0 {
			log.Plainf("last sync: never\n")
		} else {
			log.Plainf("last sync: %s\n", time.Unix(lastSyncAt, 0).Local().Format(time.RFC1123))
		}

		return nil
	}
}
