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

package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/bedrock/database"
	"github.com/tomoncle/bedrock/model"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testAuthor struct {
	bun.BaseModel `bun:"table:authors,alias:a"`
	model.GUIDFields
	model.SlugFields
	model.TimestampFields
	model.SoftDeleteFields

	Name string `bun:"name,notnull"`
}

type testBook struct {
	bun.BaseModel `bun:"table:books,alias:b"`
	model.IntIDFields
	model.TimestampFields
	model.ExpiryFields

	Title    string      `bun:"title,notnull"`
	Pages    int         `bun:"pages"`
	AuthorID uuid.UUID   `bun:"author_id,type:varchar(36)"`
	Author   *testAuthor `bun:"rel:belongs-to,join:author_id=id"`
}

func newTestRegistry() *database.Registry {
	return database.NewRegistry(
		database.NewModelAdapter((*testAuthor)(nil), 10),
		database.NewModelAdapter((*testBook)(nil), 20),
	)
}

// newTestSession opens a migrated in-memory database and a session on it
// whose clock is fixed at testNow. The pool holds a single connection, so
// the database must not be used directly while the session has a
// transaction open.
func newTestSession(t *testing.T) *database.Session {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	mm := database.NewMigrationManager(db, newTestRegistry(), nil, database.NopLogger())
	require.NoError(t, mm.RunMigrations(t.Context()))

	s := database.NewSession(db,
		database.WithClock(func() time.Time { return testNow }),
		database.WithSessionLogger(database.NopLogger()),
	)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newAuthor(name string) *testAuthor {
	a := &testAuthor{Name: name}
	a.Slug = Slugify(name)
	return a
}

func newBook(title string, pages int, author *testAuthor) *testBook {
	b := &testBook{Title: title, Pages: pages}
	if author != nil {
		b.AuthorID = author.ID
	}
	return b
}
