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

package bedrock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/bedrock/cache"
	"github.com/tomoncle/bedrock/database"
	"github.com/tomoncle/bedrock/model"
	"github.com/tomoncle/bedrock/repository"
	"github.com/tomoncle/bedrock/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`
	model.GUIDFields
	model.SlugFields
	model.TimestampFields

	Name string `bun:"name,notnull"`
}

type book struct {
	bun.BaseModel `bun:"table:books,alias:b"`
	model.IntIDFields
	model.TimestampFields

	Title string `bun:"title,notnull"`
	Pages int    `bun:"pages"`
}

type authorView struct {
	ID   string `msgpack:"id"`
	Slug string `msgpack:"slug"`
	Name string `msgpack:"name"`
}

func presentAuthor(a *author) (*authorView, error) {
	return &authorView{ID: a.ID.String(), Slug: a.Slug, Name: a.Name}, nil
}

func newSession(t *testing.T) *database.Session {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	reg := database.NewRegistry(
		database.NewModelAdapter((*author)(nil), 10),
		database.NewModelAdapter((*book)(nil), 20),
	)
	require.NoError(t, database.NewMigrationManager(db, reg, nil, database.NopLogger()).RunMigrations(t.Context()))

	s := database.NewSession(db, database.WithSessionLogger(database.NopLogger()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newAuthorService(t *testing.T, opts ...ServiceOption) (Service[author, authorView], repository.Repository[author]) {
	repo := repository.NewRepository[author](newSession(t), repository.WithLogger(database.NopLogger()))
	opts = append([]ServiceOption{WithServiceLogger(database.NopLogger())}, opts...)
	return NewService[author, authorView](repo, presentAuthor, opts...), repo
}

type authorPayload struct {
	Name string  `json:"name"`
	Slug string  `json:"slug"`
	Bio  *string `json:"bio"`
}

func TestServiceCreate(t *testing.T) {
	svc, _ := newAuthorService(t)

	created, err := svc.Create(t.Context(), authorPayload{Name: "Frank Herbert", Slug: "frank-herbert"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Frank Herbert", created.Name)

	id := uuid.New()
	created, err = svc.Create(t.Context(), map[string]any{"id": id.String(), "name": "Brian Herbert", "slug": "brian-herbert", "unknown": 1})
	require.NoError(t, err)
	assert.Equal(t, id.String(), created.ID)

	_, err = svc.Create(t.Context(), map[string]any{"name": "Dup", "slug": "brian-herbert"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, err := svc.GetByID(t.Context(), id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "brian-herbert", got.Slug)

	got, err = svc.Get(t.Context(), repository.WhereColumn("slug", "frank-herbert"))
	require.NoError(t, err)
	assert.Equal(t, "Frank Herbert", got.Name)

	list, err := svc.List(t.Context(), repository.Ordered(repository.Asc("name")))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Brian Herbert", list[0].Name)
}

func TestServiceUpdate(t *testing.T) {
	repo := repository.NewRepository[book](newSession(t))
	svc := NewModelService(repo, WithServiceLogger(database.NopLogger()))

	created, err := svc.Create(t.Context(), map[string]any{"title": "Dune", "pages": 412})
	require.NoError(t, err)
	id := created.ID

	updated, err := svc.UpdateByID(t.Context(), id, map[string]any{"id": 999, "title": "Dune Messiah"})
	require.NoError(t, err)
	assert.Equal(t, id, updated.ID)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.Equal(t, 412, updated.Pages)
	assert.False(t, updated.UpdatedAt.IsZero())

	type patch struct {
		Title *string `json:"title"`
		Pages *int    `json:"pages"`
	}
	pages := 256
	updated, err = svc.Update(t.Context(), updated, patch{Pages: &pages})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.Equal(t, 256, updated.Pages)

	updated, err = svc.Update(t.Context(), updated, map[string]any{"pages": nil})
	require.NoError(t, err)
	assert.Zero(t, updated.Pages)

	_, err = svc.UpdateByID(t.Context(), int64(12345), map[string]any{"title": "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, repository.StatusCode(err))
}

func TestServiceRemove(t *testing.T) {
	svc, _ := newAuthorService(t)

	created, err := svc.Create(t.Context(), authorPayload{Name: "Frank Herbert", Slug: "frank-herbert"})
	require.NoError(t, err)

	removed, err := svc.Remove(t.Context(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, "Frank Herbert", removed.Name)

	removed, err = svc.Remove(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, removed)

	got, err := svc.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestServiceGetMulti(t *testing.T) {
	repo := repository.NewRepository[book](newSession(t))
	svc := NewModelService(repo, WithServiceLogger(database.NopLogger()))
	for _, p := range []int{300, 100, 500, 200, 400} {
		_, err := svc.Create(t.Context(), map[string]any{"title": "book", "pages": p})
		require.NoError(t, err)
	}

	page, err := svc.GetMulti(t.Context(), types.MultiParams{Skip: 1, Limit: 2, SortField: "pages", Direction: types.Ascending})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Count)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 1, page.Skip)
	require.Len(t, page.Results, 2)
	assert.Equal(t, 200, page.Results[0].Pages)
	assert.Equal(t, 300, page.Results[1].Pages)

	// unknown sort fields fall back to the primary key, descending by default
	page, err = svc.GetMulti(t.Context(), types.MultiParams{SortField: "nope"})
	require.NoError(t, err)
	assert.Equal(t, types.DefaultMultiLimit, page.Limit)
	require.Len(t, page.Results, 5)
	assert.Equal(t, 400, page.Results[0].Pages)
	assert.Equal(t, 300, page.Results[4].Pages)

	page, err = svc.GetMulti(t.Context(), types.MultiParams{Skip: 10}, repository.Where("?TableAlias.pages > ?", 1000))
	require.NoError(t, err)
	assert.Zero(t, page.Count)
	assert.NotNil(t, page.Results)
	assert.Empty(t, page.Results)
}

func TestServiceCache(t *testing.T) {
	store := cache.NewLRUStore(16, time.Minute)
	svc, repo := newAuthorService(t, WithCache(store, time.Minute), WithKeySpace(cache.NewKeySpace("Test App")))

	created, err := svc.Create(t.Context(), authorPayload{Name: "Frank Herbert", Slug: "frank-herbert"})
	require.NoError(t, err)
	assert.Zero(t, store.Len())

	_, err = svc.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	_, ok, err := store.Get(t.Context(), "test-app:authors:"+created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// a write that bypasses the service leaves the cached value in place
	entity, err := repo.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	entity.Name = "F. Herbert"
	require.NoError(t, repo.Update(t.Context(), entity, true))

	cached, err := svc.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Frank Herbert", cached.Name)

	fresh, err := svc.GetByID(t.Context(), created.ID, repository.Where("1 = 1"))
	require.NoError(t, err)
	assert.Equal(t, "F. Herbert", fresh.Name)

	_, err = svc.UpdateByID(t.Context(), created.ID, map[string]any{"name": "Frank P. Herbert"})
	require.NoError(t, err)
	assert.Zero(t, store.Len())

	got, err := svc.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Frank P. Herbert", got.Name)

	_, err = svc.Remove(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Zero(t, store.Len())
}

type brokenStore struct{}

var errCacheDown = errors.New("cache down")

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errCacheDown }

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error { return errCacheDown }

func (brokenStore) Delete(context.Context, ...string) error { return errCacheDown }

func TestServiceIgnoresCacheFailures(t *testing.T) {
	svc, _ := newAuthorService(t, WithCache(brokenStore{}, time.Minute))

	created, err := svc.Create(t.Context(), authorPayload{Name: "Frank Herbert", Slug: "frank-herbert"})
	require.NoError(t, err)

	got, err := svc.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Frank Herbert", got.Name)

	_, err = svc.UpdateByID(t.Context(), created.ID, map[string]any{"name": "F. Herbert"})
	assert.NoError(t, err)
}

func TestPayloadMap(t *testing.T) {
	m, err := payloadMap(nil)
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = payloadMap([]int{1, 2})
	assert.Error(t, err)

	_, err = payloadMap(make(chan int))
	assert.Error(t, err)
}
