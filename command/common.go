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
	"github.com/tomoncle/bedrock/config"
	"github.com/tomoncle/bedrock/database"
	"github.com/urfave/cli/v2"
)

// connect opens the configured database. The caller closes the factory.
func connect(ctx *cli.Context, registry *database.Registry) (*database.BaseDatabaseFactory, *config.Config, error) {
	conf, err := getConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	factory := database.NewDatabaseFactory(registry)
	manager, err := factory.CreateFromConfig(conf.ConfigLoader())
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	if conf.Metrics.Enabled {
		manager.AddQueryHook(database.NewMetricsHook(nil))
	}
	if err := manager.Connect(ctx.Context); err != nil {
		return nil, nil, errors.Wrap(err, "could not connect to database")
	}
	return factory, conf, nil
}

func closeFactory(factory *database.BaseDatabaseFactory) {
	if err := factory.Close(); err != nil {
		logger.Warnf("could not close database: %v", err)
	}
}
