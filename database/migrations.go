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
	"os"
	"sort"
	"time"

	"github.com/tomoncle/bedrock/model"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/schema"
)

// MigrationManager creates the registered tables with their convention-named
// indexes, adds foreign keys and seeds data. Applied versions are tracked in
// the bedrock_migrations table.
type MigrationManager struct {
	db       *bun.DB
	registry *Registry
	config   *Config
	logger   Logger
}

// Migration represents an applied migration record stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:bedrock_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name,notnull"`
	AppliedAt   time.Time `bun:"applied_at,notnull"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version with up/down functions.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// NewMigrationManager constructs a MigrationManager for the models of
// registry. A nil config falls back to DefaultConfig.
func NewMigrationManager(db *bun.DB, registry *Registry, config *Config, logger Logger) *MigrationManager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = GetLogger()
	}
	return &MigrationManager{
		db:       db,
		registry: registry,
		config:   config,
		logger:   logger,
	}
}

func (mm *MigrationManager) naming() NamingConvention {
	return mm.config.DataMigrateConfig.Naming
}

// RunMigrations creates the tracking table if needed and applies every
// pending migration in ascending version order.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
	}

	if err := mm.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, migration := range mm.getAllMigrations() {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}

	mm.logger.Info("Database migrations completed!")
	return nil
}

func (mm *MigrationManager) createMigrationTable(ctx context.Context) error {
	_, err := mm.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (mm *MigrationManager) getAllMigrations() []MigrationItem {
	migrations := []MigrationItem{
		{
			Version:     "001",
			Name:        "create_base_tables",
			Description: "Create registered tables and their indexes",
			Up:          mm.createBaseTables,
			Down:        mm.dropBaseTables,
		},
	}
	if mm.config.DataMigrateConfig.EnableForeignKey && mm.db.Dialect().Name() != dialect.SQLite {
		migrations = append(migrations, MigrationItem{
			Version:     "002",
			Name:        "add_foreign_keys",
			Description: "Add table foreign key constraints",
			Up:          mm.addForeignKeys,
			Down:        mm.dropForeignKeys,
		})
	}
	if mm.config.DataInitConfig.AutoInitOnMigration {
		migrations = append(migrations, MigrationItem{
			Version:     "003",
			Name:        "seed_initial_data",
			Description: "Seed initial data",
			Up:          mm.seedInitialData,
		})
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations
}

func (mm *MigrationManager) isApplied(ctx context.Context, version string) (bool, error) {
	return mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("? = ?", bun.Ident("version"), version).
		Exists(ctx)
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	applied, err := mm.isApplied(ctx, migration.Version)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().
			Model(&Migration{
				Version:     migration.Version,
				Name:        migration.Name,
				AppliedAt:   time.Now().UTC(),
				Description: migration.Description,
			}).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}

	mm.logger.Info("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	return nil
}

// createBaseTables creates every registered table and the indexes named by
// the naming convention: ix_ on created_at, updated_at and expires_at, and a
// unique index on slug. SQLite gets its foreign keys inline since it cannot
// add them later.
func (mm *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	inlineFKs := mm.config.DataMigrateConfig.EnableForeignKey && db.Dialect().Name() == dialect.SQLite
	for _, m := range mm.registry.Instances() {
		q := db.NewCreateTable().Model(m).IfNotExists()
		if inlineFKs {
			q = q.WithForeignKeys()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %T: %w", m, err)
		}
		if err := mm.createIndexes(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func (mm *MigrationManager) createIndexes(ctx context.Context, db bun.IDB, m interface{}) error {
	table := db.Dialect().Tables().Get(modelType(m))
	for _, spec := range IndexSpecs(table, mm.naming()) {
		q := db.NewCreateIndex().Model(m).Index(spec.Name).Column(spec.Column)
		if spec.Unique {
			q = q.Unique()
		}
		if db.Dialect().Name() != dialect.MySQL {
			q = q.IfNotExists()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", spec.Name, err)
		}
	}
	return nil
}

// IndexSpec is an index generated for a capability column.
type IndexSpec struct {
	Name   string
	Column string
	Unique bool
}

// IndexSpecs lists the indexes migrations create for table.
func IndexSpecs(table *schema.Table, nc NamingConvention) []IndexSpec {
	var specs []IndexSpec
	for _, col := range []string{model.CreatedAtColumn, model.UpdatedAtColumn, model.ExpiresAtColumn} {
		if _, ok := table.FieldMap[col]; ok {
			specs = append(specs, IndexSpec{Name: nc.IndexName(table.Name, col), Column: col})
		}
	}
	if _, ok := table.FieldMap[model.SlugColumn]; ok {
		specs = append(specs, IndexSpec{Name: nc.UniqueName(table.Name, model.SlugColumn), Column: model.SlugColumn, Unique: true})
	}
	return specs
}

func (mm *MigrationManager) dropBaseTables(ctx context.Context, db bun.IDB) error {
	instances := mm.registry.Instances()
	for i := len(instances) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(instances[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table %T: %w", instances[i], err)
		}
	}
	return nil
}

// foreignKeyManager combines the constraints derived from belongs-to
// relations with those listed in the configured YAML file.
func (mm *MigrationManager) foreignKeyManager() (*ForeignKeyManager, error) {
	constraints := DeriveForeignKeys(mm.registry.Tables(mm.db.Dialect()))
	if path := mm.config.DataMigrateConfig.ForeignKeyFile; path != "" {
		fromFile, err := LoadForeignKeys(path)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, fromFile...)
	}
	fkm := NewForeignKeyManager(mm.logger, mm.naming(), constraints...)
	if errs := fkm.ValidateConstraints(); len(errs) > 0 {
		for _, err := range errs {
			mm.logger.Debug("Foreign key constraint validation failed", "error", err.Error())
		}
		return nil, fmt.Errorf("foreign key constraint validation failed, %d errors in total", len(errs))
	}
	return fkm, nil
}

func (mm *MigrationManager) addForeignKeys(ctx context.Context, db bun.IDB) error {
	fkm, err := mm.foreignKeyManager()
	if err != nil {
		return err
	}
	return fkm.AddAllForeignKeys(ctx, db)
}

func (mm *MigrationManager) dropForeignKeys(ctx context.Context, db bun.IDB) error {
	fkm, err := mm.foreignKeyManager()
	if err != nil {
		return err
	}
	for _, c := range fkm.ListAllConstraints() {
		if err := fkm.RemoveForeignKey(ctx, db, c.Table, c.GenerateConstraintName(mm.naming())); err != nil {
			return err
		}
	}
	return nil
}

// InitData runs the seed SQL files outside of migration tracking.
func (mm *MigrationManager) InitData(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return mm.seedInitialData(ctx, mm.db)
}

func (mm *MigrationManager) seedInitialData(ctx context.Context, db bun.IDB) error {
	initCfg := mm.config.DataInitConfig
	env := initCfg.Environment
	if env == "" {
		env = "prod"
	}
	sqlManager := NewSQLInitManager(db, env, mm.logger)
	if initCfg.Filepath != "" {
		sqlManager.SetSQLRootPath(initCfg.Filepath)
	}

	if _, err := sqlManager.ExecuteInitialization(ctx); err != nil {
		return fmt.Errorf("SQL file initialization failed: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		OrderExpr("? ASC", bun.Ident("version")).
		Scan(ctx)
	return migrations, err
}

// RollbackMigration runs the down step of an applied migration and forgets
// it.
func (mm *MigrationManager) RollbackMigration(ctx context.Context, version string) error {
	var target *MigrationItem
	for _, m := range mm.getAllMigrations() {
		if m.Version == version {
			m := m
			target = &m
			break
		}
	}
	if target == nil {
		return fmt.Errorf("unknown migration version: %s", version)
	}
	if target.Down == nil {
		return fmt.Errorf("migration %s cannot be rolled back", version)
	}
	applied, err := mm.isApplied(ctx, version)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("migration %s is not applied", version)
	}

	return mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := target.Down(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*Migration)(nil)).
			Where("? = ?", bun.Ident("version"), version).
			Exec(ctx)
		return err
	})
}
