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

// Package consts provides definitions of constants
package consts

var (
	// ConveneDirName is the name of the directory containing convene files
	ConveneDirName = "convene"
	// ConveneDBFileName is a filename for the Convene SQLite database
	ConveneDBFileName = "convene.db"
	// ConfigFilename is the name of the config file
	ConfigFilename = "convenerc"

	// SystemSchema is the key for schema in the system table
	SystemSchema = "schema"
	// SystemLastSyncAt is the timestamp of the last completed queue drain
	SystemLastSyncAt = "last_sync_time"
	// SystemSyncEnabled gates whether local mutations are queued for sync
	SystemSyncEnabled = "sync_enabled"
	// SystemSessionKey is the session key
	SystemSessionKey = "session_token"
	// SystemSessionKeyExpiry is the timestamp at which the session key will expire
	SystemSessionKeyExpiry = "session_token_expiry"
	// SystemUserID is the server-side id of the authenticated user
	SystemUserID = "user_id"
)
