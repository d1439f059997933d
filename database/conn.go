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

package database

import (
	"context"
	"fmt"
)

// InitDB creates a factory for registry, connects with cfg and applies the
// startup migration and seed settings of cfg. The caller owns the returned
// factory and closes it.
func InitDB(ctx context.Context, cfg *Config, registry *Registry) (*BaseDatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	factory := NewDatabaseFactory(registry)
	if _, err := factory.CreateFromConfig(cfg); err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := factory.InitializeDatabase(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return factory, nil
}

// RunMigrations connects with cfg, applies pending migrations and closes
// the connection.
func RunMigrations(ctx context.Context, cfg *Config, registry *Registry) error {
	return withManager(ctx, cfg, registry, func(m AbstractDatabaseManager) error {
		return m.RunMigrations(ctx)
	})
}

// InitData connects with cfg, runs the seed SQL files of the configured
// environment and closes the connection.
func InitData(ctx context.Context, cfg *Config, registry *Registry) error {
	return withManager(ctx, cfg, registry, func(m AbstractDatabaseManager) error {
		return m.InitData(ctx)
	})
}

func withManager(ctx context.Context, cfg *Config, registry *Registry, fn func(AbstractDatabaseManager) error) error {
	if cfg == nil {
		return fmt.Errorf("database configuration cannot be empty")
	}
	factory := NewDatabaseFactory(registry)
	manager, err := factory.CreateFromConfig(cfg)
	if err != nil {
		return err
	}
	if err := manager.Connect(ctx); err != nil {
		return err
	}
	defer factory.Close()
	return fn(manager)
}
