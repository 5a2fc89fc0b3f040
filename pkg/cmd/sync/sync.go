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

package sync

import (
	"github.com/convene/convene/pkg/context"
	"github.com/convene/convene/pkg/infra"
	"github.com/convene/convene/pkg/log"
	"github.com/convene/convene/pkg/syncer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  convene sync`

var apiEndpointFlag string

// NewCmd returns a new sync command
func NewCmd(ctx context.ConveneCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"s"},
		Short:   "Drain the sync queue against the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

func newRun(ctx context.ConveneCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		enabled, err := ctx.DB.IsSyncEnabled()
		if err != nil {
			return errors.Wrap(err, "checking sync preference")
		}
		if !enabled {
			log.Plainf("sync is disabled. Run: convene sync-on\n")
			return nil
		}

		log.Infof("syncing...\n")

		result, err := syncer.SyncAll(ctx)
		if err != nil {
			return errors.Wrap(err, "syncing")
		}

		for _, msg := range result.Errors {
			log.Warnf("%s\n", msg)
		}

		if result.Success {
			log.Successf("synced %d items\n", result.SyncedCount)
		} else {
			log.Errorf("synced %d items with failures. Failed items remain queued.\n", result.SyncedCount)
		}

		return nil
	}
}
