/*
 * Copyright 2025 tomoncle.
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

package command

import (
	"fmt"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/tomoncle/bedrock/config"
	"github.com/tomoncle/bedrock/database"
	"github.com/tomoncle/bedrock/utils"
	"github.com/urfave/cli/v2"
)

const (
	paramConfig   = "config"
	paramLogLevel = "log-level"
	paramDebug    = "debug"

	metadataConfig = "config"
)

var logger = utils.NewLogger("COMMAND")

// NewApp builds the operator CLI for the models of registry.
func NewApp(name, usage string, registry *database.Registry) *cli.App {
	if registry == nil {
		registry = database.NewRegistry()
	}
	app := &cli.App{
		Name:  name,
		Usage: usage,
		Commands: []*cli.Command{
			migrateCommand(registry),
			seedCommand(registry),
			healthCommand(registry),
			sweepCommand(registry),
		},
		Before: func(ctx *cli.Context) error {
			conf, err := config.Load(ctx.String(paramConfig))
			if err != nil {
				return errors.Wrap(err, "could not load configuration")
			}
			if lvl := ctx.String(paramLogLevel); lvl != "" {
				conf.Logger.Level = lvl
			}
			conf.ApplyLogging()
			ctx.App.Metadata[metadataConfig] = conf
			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    paramConfig,
				Aliases: []string{"c"},
				EnvVars: []string{"BEDROCK_CONFIG"},
				Usage:   "configuration file to use",
			},
			&cli.StringFlag{
				Name:    paramLogLevel,
				EnvVars: []string{"BEDROCK_LOG_LEVEL"},
				Usage:   "Set logging level",
			},
			&cli.BoolFlag{
				Name:    paramDebug,
				EnvVars: []string{"BEDROCK_DEBUG"},
				Usage:   "Print error stacks",
			},
		},
		Metadata: map[string]interface{}{},
	}

	app.ExitErrHandler = func(ctx *cli.Context, err error) {
		if err == nil {
			return
		}
		if ctx.Bool(paramDebug) {
			logger.Errorf("%+v", err)
		} else {
			logger.Error(err.Error())
		}
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))
	return app
}

// Main runs the CLI on os.Args and exits non-zero on failure.
func Main(name, usage string, registry *database.Registry) {
	if err := NewApp(name, usage, registry).Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func getConfig(ctx *cli.Context) (*config.Config, error) {
	conf, ok := ctx.App.Metadata[metadataConfig].(*config.Config)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return conf, nil
}

func printf(ctx *cli.Context, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(ctx.App.Writer, format, args...)
}
