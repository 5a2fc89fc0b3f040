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

package watch

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/convene/convene/pkg/context"
	"github.com/convene/convene/pkg/infra"
	"github.com/convene/convene/pkg/log"
	"github.com/convene/convene/pkg/syncer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  convene watch
  convene watch --schedule "@every 1m"`

var scheduleFlag string

// NewCmd returns a new watch command
func NewCmd(ctx context.ConveneCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Periodically drain the sync queue in the foreground",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&scheduleFlag, "schedule", syncer.DefaultSyncSchedule, "cron expression for the sync interval")

	return cmd
}

func newRun(ctx context.ConveneCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		s, err := syncer.NewScheduler(ctx, scheduleFlag)
		if err != nil {
			return errors.Wrap(err, "creating scheduler")
		}

		s.Start()
		defer s.Stop()

		log.Infof("watching for changes on schedule %s\n", scheduleFlag)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Infof("stopping\n")

		return nil
	}
}
