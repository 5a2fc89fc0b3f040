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

package main

import (
	"os"
	"strings"

	"github.com/convene/convene/pkg/infra"
	"github.com/convene/convene/pkg/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	// commands
	"github.com/convene/convene/pkg/cmd/conflicts"
	"github.com/convene/convene/pkg/cmd/root"
	"github.com/convene/convene/pkg/cmd/status"
	"github.com/convene/convene/pkg/cmd/sync"
	"github.com/convene/convene/pkg/cmd/syncpref"
	"github.com/convene/convene/pkg/cmd/version"
	"github.com/convene/convene/pkg/cmd/watch"
)

// apiEndpoint and versionTag are populated during link time
var apiEndpoint string
var versionTag = "master"

// parseDBPath extracts the --dbPath flag value from command line arguments
// regardless of where it appears, because flags after the subcommand are not
// parsed until after the database must already be open.
func parseDBPath(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "--dbPath=") {
			return strings.TrimPrefix(arg, "--dbPath=")
		}
		if arg == "--dbPath" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func main() {
	dbPath := parseDBPath(os.Args[1:])

	ctx, err := infra.Init(versionTag, apiEndpoint, dbPath)
	if err != nil {
		panic(errors.Wrap(err, "initializing context"))
	}
	defer ctx.DB.Close()

	root.Register(sync.NewCmd(*ctx))
	root.Register(syncpref.NewOnCmd(*ctx))
	root.Register(syncpref.NewOffCmd(*ctx))
	root.Register(status.NewCmd(*ctx))
	root.Register(conflicts.NewCmd(*ctx))
	root.Register(watch.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))

	if err := root.Execute(); err != nil {
		log.Errorf("%s\n", err.Error())
		os.Exit(1)
	}
}
