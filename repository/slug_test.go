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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "frank-herbert", Slugify("  Frank HERBERT "))
	assert.Equal(t, "dune-messiah-1969", Slugify("Dune: Messiah (1969)"))
}

func TestGetAvailableSlug(t *testing.T) {
	orig := randomSuffix
	randomSuffix = func() string { return "x7k2" }
	t.Cleanup(func() { randomSuffix = orig })

	s := newTestSession(t)
	repo := NewSlugRepository[testAuthor](s)

	slug, err := repo.GetAvailableSlug(t.Context(), "Frank Herbert")
	require.NoError(t, err)
	assert.Equal(t, "frank-herbert", slug)

	author := newAuthor("Frank Herbert")
	author.Slug = slug
	require.NoError(t, repo.Create(t.Context(), author, false))

	// the staged insert is flushed before the lookup
	slug, err = repo.GetAvailableSlug(t.Context(), "Frank Herbert")
	require.NoError(t, err)
	assert.Equal(t, "frank-herbert-x7k2", slug)
	require.NoError(t, repo.Commit(t.Context()))

	got, err := repo.GetBySlug(t.Context(), "frank-herbert")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, author.ID, got.ID)

	got, err = repo.GetBySlug(t.Context(), "frank-herbert-x7k2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetAvailableSlugRejectsEmpty(t *testing.T) {
	repo := NewSlugRepository[testAuthor](newTestSession(t))

	for _, text := range []string{"", "!!!", "   "} {
		slug, err := repo.GetAvailableSlug(t.Context(), text)
		assert.ErrorIs(t, err, ErrUsage, "text %q", text)
		assert.Empty(t, slug)
	}
}

func TestRandomSuffix(t *testing.T) {
	suffix := randomSuffix()
	assert.Len(t, suffix, slugSuffixLength)
	assert.Regexp(t, `^[a-z0-9]{4}$`, suffix)
}
