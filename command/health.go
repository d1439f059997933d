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
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tomoncle/bedrock/database"
	"github.com/urfave/cli/v2"
)

func healthCommand(registry *database.Registry) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check that the database answers",
		Action: func(ctx *cli.Context) error {
			factory, _, err := connect(ctx, registry)
			if err != nil {
				return err
			}
			defer closeFactory(factory)

			status := factory.GetHealthStatus(ctx.Context)
			out, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return errors.WithStack(err)
			}
			printf(ctx, "%s\n", out)
			if !status.Healthy {
				return errors.Errorf("database is unhealthy: %s", status.LastError)
			}
			return nil
		},
	}
}
