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

func TestSoftDeleteAndRestore(t *testing.T) {
	s := newTestSession(t)
	repo := NewSoftDeleteRepository[testAuthor](s)

	author := newAuthor("Frank Herbert")
	require.NoError(t, repo.Create(t.Context(), author, true))

	require.NoError(t, repo.SoftDelete(t.Context(), author, true))
	assert.True(t, author.IsDeleted)

	visible, err := repo.Count(t.Context(), NotDeleted())
	require.NoError(t, err)
	assert.Zero(t, visible)

	all, err := repo.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, all)

	require.NoError(t, repo.Restore(t.Context(), author, true))
	got, err := repo.GetOne(t.Context(), NotDeleted())
	require.NoError(t, err)
	assert.Equal(t, author.ID, got.ID)
}
