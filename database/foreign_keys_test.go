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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestDeriveForeignKeys(t *testing.T) {
	reg := newTestRegistry()
	fks := DeriveForeignKeys(reg.Tables(sqlitedialect.New()))

	require.Len(t, fks, 1)
	fk := fks[0]
	assert.Equal(t, "books", fk.Table)
	assert.Equal(t, "author_id", fk.Column)
	assert.Equal(t, "authors", fk.ReferenceTable)
	assert.Equal(t, "id", fk.ReferenceColumn)
	assert.Equal(t, "NO ACTION", fk.OnDelete)
	assert.Equal(t, "fk_books_author_id_authors", fk.GenerateConstraintName(DefaultNamingConvention()))
}

func TestForeignKeyQuery(t *testing.T) {
	db := newTestDB(t)
	fk := ForeignKeyConstraint{
		Table:           "books",
		Column:          "author_id",
		ReferenceTable:  "authors",
		ReferenceColumn: "id",
		OnDelete:        "cascade",
	}

	query := fk.Query(db, NamingConvention{}).String()
	assert.Equal(t,
		`ALTER TABLE "books" ADD CONSTRAINT "fk_books_author_id_authors" FOREIGN KEY ("author_id") REFERENCES "authors" ("id") ON DELETE CASCADE`,
		query)

	fk.ConstraintName = "books_author"
	assert.Contains(t, fk.Query(db, NamingConvention{}).String(), `"books_author"`)
}

func TestValidateConstraints(t *testing.T) {
	fkm := NewForeignKeyManager(nil, DefaultNamingConvention(),
		ForeignKeyConstraint{Table: "books", Column: "author_id", ReferenceTable: "authors", ReferenceColumn: "id", OnDelete: "set null"},
		ForeignKeyConstraint{Table: "books", Column: "", ReferenceTable: "authors", ReferenceColumn: "id"},
		ForeignKeyConstraint{Table: "reviews", Column: "book_id", ReferenceTable: "books", ReferenceColumn: "id", OnUpdate: "EXPLODE"},
	)

	errs := fkm.ValidateConstraints()
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "column name cannot be empty")
	assert.Contains(t, errs[1].Error(), "invalid referential action: EXPLODE")

	assert.Len(t, fkm.GetConstraintsByTable("BOOKS"), 2)
	assert.Len(t, fkm.ListAllConstraints(), 3)
}

func TestForeignKeyConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "foreign_keys.yaml")
	fkm := NewForeignKeyManager(nil, DefaultNamingConvention(),
		ForeignKeyConstraint{Table: "books", Column: "author_id", ReferenceTable: "authors", ReferenceColumn: "id", OnDelete: "CASCADE"},
	)
	require.NoError(t, fkm.ExportToConfig(path))

	loaded, err := LoadForeignKeys(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, ForeignKeyConstraint{
		Table:           "books",
		Column:          "author_id",
		ReferenceTable:  "authors",
		ReferenceColumn: "id",
		OnDelete:        "CASCADE",
		ConstraintName:  "fk_books_author_id_authors",
	}, loaded[0])

	_, err = LoadForeignKeys(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
