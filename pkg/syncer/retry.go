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
	"time"

	"github.com/convene/convene/pkg/client"
	"github.com/convene/convene/pkg/context"
	"github.com/convene/convene/pkg/log"
)

// maxAttempts is the number of tries for a single remote call within one
// queue-item processing pass: the initial attempt plus two retries.
const maxAttempts = 3

// defaultRetryBaseDelay is the unit of the linear backoff between attempts
const defaultRetryBaseDelay = time.Second

// callWithRetry invokes fn up to maxAttempts times with a linearly increasing
// delay between attempts. Only transport and server failures are retried; a
// well-formed 4xx response, including not-found, returns immediately.
func callWithRetry(ctx context.ConveneCtx, fn func() error) error {
	baseDelay := ctx.RetryBaseDelay
	if baseDelay == 0 {
		baseDelay = defaultRetryBaseDelay
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if !client.IsRetriable(err) {
			return err
		}

		if attempt < maxAttempts {
			delay := baseDelay * time.Duration(attempt)
			log.Debug("remote call failed (attempt %d/%d), retrying in %v: %v\n", attempt, maxAttempts, delay, err)
			time.Sleep(delay)
		}
	}

	return err
}
