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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/bedrock/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)}
}

func TestSessionInsertDefaults(t *testing.T) {
	db := newMigratedDB(t)
	clock := newClock()
	s := NewSession(db, WithClock(clock.Now), WithSessionLogger(NopLogger()))
	defer s.Close()

	author := &testAuthor{Name: "Ursula"}
	author.Slug = "ursula"
	book := &testBook{Title: "The Dispossessed", Lifespan: 2 * time.Hour}
	s.Add(author, book)
	require.NoError(t, s.Commit(t.Context()))

	assert.NotEqual(t, uuid.Nil, author.ID)
	assert.NotZero(t, book.ID)
	want := clock.now.Truncate(time.Microsecond)
	assert.True(t, author.CreatedAt.Equal(want))
	assert.True(t, author.UpdatedAt.IsZero())
	assert.True(t, book.ExpiresAt.Equal(want.Add(2*time.Hour)))

	var loaded testAuthor
	loaded.ID = author.ID
	require.NoError(t, s.Refresh(t.Context(), &loaded))
	assert.Equal(t, "Ursula", loaded.Name)
	assert.True(t, loaded.CreatedAt.Equal(want))
}

func TestSessionKeepsExplicitValues(t *testing.T) {
	db := newMigratedDB(t)
	s := NewSession(db, WithClock(newClock().Now))
	defer s.Close()

	created := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	book := &testBook{Title: "Imported"}
	book.CreatedAt = created
	book.UpdatedAt = created
	book.ExpiresAt = expires
	s.Add(book)
	require.NoError(t, s.Commit(t.Context()))

	assert.True(t, book.CreatedAt.Equal(created))
	assert.True(t, book.UpdatedAt.IsZero())
	assert.True(t, book.ExpiresAt.Equal(expires))
}

func TestSessionDefaultLifetime(t *testing.T) {
	db := newMigratedDB(t)
	clock := newClock()
	s := NewSession(db, WithClock(clock.Now))
	defer s.Close()

	book := &testBook{Title: "Default"}
	s.Add(book)
	require.NoError(t, s.Commit(t.Context()))
	assert.True(t, book.ExpiresAt.Equal(clock.now.Truncate(time.Microsecond).Add(model.DefaultLifetime)))
}

func TestSessionUpdateTouchesUpdatedAt(t *testing.T) {
	db := newMigratedDB(t)
	clock := newClock()
	s := NewSession(db, WithClock(clock.Now))
	defer s.Close()

	book := &testBook{Title: "Draft"}
	s.Add(book)
	require.NoError(t, s.Commit(t.Context()))

	clock.Advance(time.Minute)
	book.Title = "Final"
	s.MarkDirty(book)
	require.NoError(t, s.Commit(t.Context()))
	first := book.UpdatedAt
	assert.True(t, first.Equal(clock.now.Truncate(time.Microsecond)))

	clock.Advance(-time.Hour)
	s.MarkDirty(book)
	require.NoError(t, s.Commit(t.Context()))
	second := book.UpdatedAt
	assert.True(t, second.Equal(clock.now.Truncate(time.Microsecond)))
	assert.True(t, second.Before(first))

	loaded := &testBook{}
	loaded.ID = book.ID
	require.NoError(t, s.Refresh(t.Context(), loaded))
	assert.Equal(t, "Final", loaded.Title)
	assert.True(t, loaded.UpdatedAt.Equal(second))
}

func TestSessionUpdateOverwritesCallerUpdatedAt(t *testing.T) {
	db := newMigratedDB(t)
	clock := newClock()
	s := NewSession(db, WithClock(clock.Now))
	defer s.Close()

	book := &testBook{Title: "Draft"}
	s.Add(book)
	require.NoError(t, s.Commit(t.Context()))

	book.UpdatedAt = time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	s.MarkDirty(book)
	require.NoError(t, s.Commit(t.Context()))
	now := clock.now.Truncate(time.Microsecond)
	assert.True(t, book.UpdatedAt.Equal(now))

	loaded := &testBook{}
	loaded.ID = book.ID
	require.NoError(t, s.Refresh(t.Context(), loaded))
	assert.True(t, loaded.UpdatedAt.Equal(now), "stored updated_at %s", loaded.UpdatedAt)
}

func TestSessionMissingRowsFailFlush(t *testing.T) {
	db := newMigratedDB(t)
	s := NewSession(db)
	defer s.Close()

	ghost := &testBook{Title: "Ghost"}
	ghost.ID = 4242
	s.MarkDirty(ghost)
	err := s.Flush(t.Context())
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.False(t, s.InTx(), "a failed flush rolls back")
	assert.Zero(t, s.Pending())

	s.Remove(ghost)
	require.ErrorIs(t, s.Commit(t.Context()), sql.ErrNoRows)
}

func TestSessionStaging(t *testing.T) {
	db := newMigratedDB(t)
	s := NewSession(db)
	defer s.Close()

	book := &testBook{Title: "Staged"}
	s.Add(book)
	s.Add(book)
	s.MarkDirty(book)
	assert.Equal(t, 1, s.Pending())

	s.Remove(book)
	assert.Zero(t, s.Pending(), "removing a pending insert drops it")
	require.NoError(t, s.Commit(t.Context()))

	count, err := db.NewSelect().Model((*testBook)(nil)).Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSessionRollback(t *testing.T) {
	db := newMigratedDB(t)
	s := NewSession(db)
	defer s.Close()

	s.Add(&testBook{Title: "Lost"})
	require.NoError(t, s.Flush(t.Context()))
	assert.True(t, s.InTx())
	require.NoError(t, s.Rollback())
	assert.False(t, s.InTx())

	count, err := db.NewSelect().Model((*testBook)(nil)).Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSessionClosed(t *testing.T) {
	s := NewSession(newTestDB(t))
	require.NoError(t, s.Close())
	s.Add(&testBook{Title: "Late"})
	require.ErrorIs(t, s.Flush(t.Context()), ErrSessionClosed)
	require.ErrorIs(t, s.Begin(t.Context()), ErrSessionClosed)
}
