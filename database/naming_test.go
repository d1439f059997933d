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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultNamingConvention(t *testing.T) {
	nc := DefaultNamingConvention()

	assert.Equal(t, "ix_books_created_at", nc.IndexName("books", "created_at"))
	assert.Equal(t, "uq_authors_slug", nc.UniqueName("authors", "slug"))
	assert.Equal(t, "ck_books_positive_pages", nc.CheckName("books", "positive_pages"))
	assert.Equal(t, "fk_books_author_id_authors", nc.ForeignKeyName("books", "author_id", "authors"))
	assert.Equal(t, "pk_books", nc.PrimaryKeyName("books"))
}

func TestNamingConventionFallsBackPerTemplate(t *testing.T) {
	nc := NamingConvention{Index: "idx_%(table_name)s__%(column_0_name)s"}

	assert.Equal(t, "idx_books__title", nc.IndexName("books", "title"))
	assert.Equal(t, "uq_books_isbn", nc.UniqueName("books", "isbn"))
}
