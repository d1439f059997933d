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
	paramRollback = "rollback"
	paramList     = "list"
)

func migrateCommand(registry *database.Registry) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create tables, indexes and foreign keys of the registered models",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  paramRollback,
				Usage: "Roll back the migration with this version instead",
			},
			&cli.BoolFlag{
				Name:  paramList,
				Usage: "List applied migrations",
			},
		},
		Action: func(ctx *cli.Context) error {
			factory, conf, err := connect(ctx, registry)
			if err != nil {
				return err
			}
			defer closeFactory(factory)

			mm := database.NewMigrationManager(factory.GetDB(), registry, conf.ConfigLoader(), database.GetLogger())

			switch {
			case ctx.Bool(paramList):
				applied, err := mm.GetAppliedMigrations(ctx.Context)
				if err != nil {
					return errors.Wrap(err, "could not list migrations")
				}
				for _, m := range applied {
					printf(ctx, "%s\t%s\t%s\n", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
				}
				return nil
			case ctx.String(paramRollback) != "":
				version := ctx.String(paramRollback)
				if err := mm.RollbackMigration(ctx.Context, version); err != nil {
					return errors.Wrapf(err, "could not roll back %s", version)
				}
				printf(ctx, "rolled back %s\n", version)
				return nil
			}

			if err := mm.RunMigrations(ctx.Context); err != nil {
				return errors.Wrap(err, "could not run migrations")
			}
			printf(ctx, "migrations applied\n")
			return nil
		},
	}
}
