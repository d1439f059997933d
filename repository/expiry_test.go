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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteExpired(t *testing.T) {
	s := newTestSession(t)
	repo := NewExpiryRepository[testBook](s)

	expired := newBook("expired", 1, nil)
	expired.ExpiresAt = testNow.Add(-time.Hour)
	boundary := newBook("boundary", 2, nil)
	boundary.ExpiresAt = testNow
	fresh := newBook("fresh", 3, nil)
	require.NoError(t, repo.CreateMany(t.Context(), []*testBook{expired, boundary, fresh}, true))
	assert.Equal(t, testNow.Add(time.Hour), fresh.ExpiresAt)

	n, err := repo.DeleteExpired(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, repo.Commit(t.Context()))

	left, err := repo.List(t.Context(), Ordered(Asc("pages")))
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, "boundary", left[0].Title)
	assert.Equal(t, "fresh", left[1].Title)
}

func TestDeleteExpiredForRuntimeModel(t *testing.T) {
	s := newTestSession(t)
	repo := NewRepository[testBook](s)

	old := newBook("old", 1, nil)
	old.ExpiresAt = testNow.Add(-time.Minute)
	require.NoError(t, repo.Create(t.Context(), old, false))

	instance := interface{}((*testBook)(nil))
	n, err := DeleteExpired(t.Context(), s, instance)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, s.Commit(t.Context()))

	_, err = DeleteExpired(t.Context(), s, (*testAuthor)(nil))
	assert.ErrorIs(t, err, ErrUsage)
}
