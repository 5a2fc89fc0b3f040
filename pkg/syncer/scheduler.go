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

package syncer

import (
	"github.com/convene/convene/pkg/context"
	"github.com/convene/convene/pkg/log"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

// DefaultSyncSchedule is the default interval for background queue drains
const DefaultSyncSchedule = "@every 5m"

// Scheduler periodically drains the queue in the background, standing in for
// connectivity-change listeners. Overlapping runs are already collapsed by
// SyncAll, so a slow drain never stacks up behind the schedule.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates a scheduler draining the queue on the given cron
// schedule
func NewScheduler(ctx context.ConveneCtx, schedule string) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSyncSchedule
	}

	c := cron.New()
	err := c.AddFunc(schedule, func() {
		result, err := SyncAll(ctx)
		if err != nil {
			log.Errorf("background sync: %v\n", err)
			return
		}

		if !result.Success {
			log.Warnf("background sync finished with %d errors\n", len(result.Errors))
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "registering sync schedule")
	}

	return &Scheduler{cron: c}, nil
}

// Start begins the background schedule
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the background schedule. A drain already in flight runs to
// completion.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
