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
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/bedrock/model"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type testAuthor struct {
	bun.BaseModel `bun:"table:authors,alias:a"`
	model.GUIDFields
	model.SlugFields
	model.TimestampFields

	Name string `bun:"name,notnull"`
}

type testBook struct {
	bun.BaseModel `bun:"table:books,alias:b"`
	model.IntIDFields
	model.TimestampFields
	model.ExpiryFields

	Title    string        `bun:"title,notnull"`
	Pages    int           `bun:"pages"`
	AuthorID uuid.UUID     `bun:"author_id,type:varchar(36)"`
	Author   *testAuthor   `bun:"rel:belongs-to,join:author_id=id"`
	Lifespan time.Duration `bun:"-"`
}

func (b *testBook) Lifetime() time.Duration { return b.Lifespan }

func newTestRegistry() *Registry {
	return NewRegistry(
		NewModelAdapter((*testBook)(nil), 20),
		NewModelAdapter((*testAuthor)(nil), 10),
	)
}

// newTestDB opens a private in-memory sqlite database.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newMigratedDB opens a database with the test tables created.
func newMigratedDB(t *testing.T) *bun.DB {
	t.Helper()
	db := newTestDB(t)
	mm := NewMigrationManager(db, newTestRegistry(), nil, NopLogger())
	require.NoError(t, mm.RunMigrations(t.Context()))
	return db
}
