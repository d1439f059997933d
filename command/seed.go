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
	"github.com/pkg/errors"
	"github.com/tomoncle/bedrock/database"
	"github.com/urfave/cli/v2"
)

const (
	paramEnvironment = "environment"
	paramPath        = "path"
)

func seedCommand(registry *database.Registry) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Run the SQL seed files of an environment",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    paramEnvironment,
				Aliases: []string{"e"},
				Usage:   "Seed environment, overrides the configuration",
			},
			&cli.StringFlag{
				Name:    paramPath,
				Aliases: []string{"p"},
				Usage:   "Seed root directory, overrides the configuration",
			},
		},
		Action: func(ctx *cli.Context) error {
			factory, conf, err := connect(ctx, registry)
			if err != nil {
				return err
			}
			defer closeFactory(factory)

			seed := conf.Database.DataInitConfig
			if e := ctx.String(paramEnvironment); e != "" {
				seed.Environment = e
			}
			if p := ctx.String(paramPath); p != "" {
				seed.Filepath = p
			}

			sm := database.NewSQLInitManager(factory.GetDB(), seed.Environment, database.GetLogger())
			sm.SetSQLRootPath(seed.Filepath)
			results, err := sm.ExecuteInitialization(ctx.Context)
			for _, r := range results {
				status := "ok"
				if !r.Success {
					status = "failed"
				}
				printf(ctx, "%s\t%s\t%d rows\t%s\n", r.File, status, r.RowsAffected, r.Duration)
			}
			if err != nil {
				return errors.Wrap(err, "could not seed database")
			}
			return nil
		},
	}
}
