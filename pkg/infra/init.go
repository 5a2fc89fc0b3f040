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

// Package infra provides operations and definitions for the
// local infrastructure for Convene
package infra

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/convene/convene/pkg/client"
	"github.com/convene/convene/pkg/clock"
	"github.com/convene/convene/pkg/config"
	"github.com/convene/convene/pkg/consts"
	"github.com/convene/convene/pkg/context"
	"github.com/convene/convene/pkg/database"
	"github.com/convene/convene/pkg/dirs"
	"github.com/convene/convene/pkg/log"
	"github.com/convene/convene/pkg/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	// DefaultAPIEndpoint is the default API endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:3001/api"

	// schemaVersion is the current local schema version
	schemaVersion = 1
)

// RunEFunc is a function type of convene commands
type RunEFunc func(*cobra.Command, []string) error

func getDBPath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	return fmt.Sprintf("%s/%s/%s", paths.Data, consts.ConveneDirName, consts.ConveneDBFileName)
}

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.ConveneCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
	}

	if err := initDirs(paths); err != nil {
		return context.ConveneCtx{}, errors.Wrap(err, "creating convene dirs")
	}

	db, err := database.Open(getDBPath(paths, customDBPath))
	if err != nil {
		return context.ConveneCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.ConveneCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
	}

	return ctx, nil
}

// Init initializes the Convene environment and returns a new convene context.
// apiEndpoint is used when creating a new config file.
func Init(versionTag, apiEndpoint, dbPath string) (*context.ConveneCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "generating the config file")
	}

	if err := database.InitSchema(ctx.DB); err != nil {
		return nil, errors.Wrap(err, "initializing database")
	}
	if err := InitSystem(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing system data")
	}

	ctx, err = setupCtx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx enriches the base context with values from config file and database.
// This is called after files and database have been initialized.
func setupCtx(ctx context.ConveneCtx) (context.ConveneCtx, error) {
	db := ctx.DB

	var sessionKey, userID string
	var sessionKeyExpiry int64

	err := db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemSessionKey).Scan(&sessionKey)
	if err != nil && err != sql.ErrNoRows {
		return ctx, errors.Wrap(err, "finding session key")
	}
	err = db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemSessionKeyExpiry).Scan(&sessionKeyExpiry)
	if err != nil && err != sql.ErrNoRows {
		return ctx, errors.Wrap(err, "finding session key expiry")
	}
	err = db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemUserID).Scan(&userID)
	if err != nil && err != sql.ErrNoRows {
		return ctx, errors.Wrap(err, "finding user id")
	}

	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	requestTimeout := client.DefaultRequestTimeout
	if cf.RequestTimeoutSeconds > 0 {
		requestTimeout = time.Duration(cf.RequestTimeoutSeconds) * time.Second
	}

	ret := context.ConveneCtx{
		Paths:            ctx.Paths,
		Version:          ctx.Version,
		DB:               ctx.DB,
		SessionKey:       sessionKey,
		SessionKeyExpiry: sessionKeyExpiry,
		UserID:           userID,
		APIEndpoint:      cf.APIEndpoint,
		Clock:            clock.New(),
		HTTPClient:       client.NewRateLimitedHTTPClient(),
		RequestTimeout:   requestTimeout,
	}

	return ret, nil
}

// initDirs creates, if necessary, the convene directories under the
// user-specific config and data homes
func initDirs(paths context.Paths) error {
	if err := utils.EnsureDir(fmt.Sprintf("%s/%s", paths.Config, consts.ConveneDirName)); err != nil {
		return errors.Wrap(err, "creating the config dir")
	}
	if err := utils.EnsureDir(fmt.Sprintf("%s/%s", paths.Data, consts.ConveneDirName)); err != nil {
		return errors.Wrap(err, "creating the data dir")
	}

	return nil
}

// initConfigFile writes a default config file unless one already exists
func initConfigFile(ctx context.ConveneCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)

	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	if apiEndpoint == "" {
		apiEndpoint = DefaultAPIEndpoint
	}

	cf := config.Config{
		APIEndpoint: apiEndpoint,
	}

	return config.Write(ctx, cf)
}

// InitSystem inserts system data if missing
func InitSystem(ctx context.ConveneCtx) error {
	log.Debug("initializing the system\n")

	db := ctx.DB

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := tx.InitSystemKV(consts.SystemSchema, strconv.Itoa(schemaVersion)); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "initializing system config for %s", consts.SystemSchema)
	}
	if err := tx.InitSystemKV(consts.SystemLastSyncAt, "0"); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "initializing system config for %s", consts.SystemLastSyncAt)
	}
	if err := tx.InitSystemKV(consts.SystemSyncEnabled, "0"); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "initializing system config for %s", consts.SystemSyncEnabled)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}
