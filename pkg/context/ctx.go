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

// Package context defines the convene runtime context
package context

import (
	"net/http"
	"time"

	"github.com/convene/convene/pkg/clock"
	"github.com/convene/convene/pkg/database"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
}

// ConveneCtx is a context holding the information of the current runtime
type ConveneCtx struct {
	Paths            Paths
	APIEndpoint      string
	Version          string
	DB               *database.DB
	SessionKey       string
	SessionKeyExpiry int64
	UserID           string
	Clock            clock.Clock
	HTTPClient       *http.Client
	// RequestTimeout bounds each remote call. A timeout is a retriable
	// failure, not a distinct outcome.
	RequestTimeout time.Duration
	// RetryBaseDelay is the unit of the linear backoff between remote
	// attempts within one queue-item processing pass.
	RetryBaseDelay time.Duration
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx ConveneCtx) ConveneCtx {
	var sessionKey string
	if ctx.SessionKey != "" {
		sessionKey = "1"
	} else {
		sessionKey = "0"
	}
	ctx.SessionKey = sessionKey

	return ctx
}
