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

// Package syncpref provides commands for toggling the sync preference.
// While sync is off, local mutations are not queued for upload.
package syncpref

import (
	"github.com/convene/convene/pkg/context"
	"github.com/convene/convene/pkg/infra"
	"github.com/convene/convene/pkg/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewOnCmd returns a command that enables sync
func NewOnCmd(ctx context.ConveneCtx) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-on",
		Short: "Enable queueing local changes for sync",
		RunE:  newRun(ctx, true),
	}
}

// NewOffCmd returns a command that disables sync
func NewOffCmd(ctx context.ConveneCtx) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-off",
		Short: "Disable queueing local changes for sync",
		RunE:  newRun(ctx, false),
	}
}

func newRun(ctx context.ConveneCtx, enabled bool) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if err := ctx.DB.SetSyncEnabled(enabled); err != nil {
			return errors.Wrap(err, "updating sync preference")
		}

		if enabled {
			log.Successf("sync enabled\n")
		} else {
			log.Successf("sync disabled\n")
		}

		return nil
	}
}
