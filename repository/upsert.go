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
	"context"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
)

// Upsert inserts entities and, on a conflict over conflictKeys (the primary
// key when empty), overwrites fields. It runs on the session's transaction
// when one is open and does not commit.
func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, conflictKeys []string, entities ...*T) error {
	if len(fields) == 0 {
		return usageErrorf("upsert fields cannot be empty")
	}
	if len(entities) == 0 {
		return nil
	}
	if err := r.autoflush(ctx, "upsert"); err != nil {
		return err
	}

	models := make([]interface{}, len(entities))
	for i, e := range entities {
		models[i] = e
	}
	r.session.PrepareInsert(models...)

	db := r.session.DB()
	q := r.session.IDB().NewInsert().Model(&entities)
	switch {
	case db.HasFeature(feature.InsertOnConflict):
		if len(conflictKeys) == 0 {
			if r.pk == nil {
				return usageErrorf("%s must have exactly one primary key", r.table.TypeName)
			}
			conflictKeys = []string{r.pk.Name}
		}
		keys := make([]interface{}, len(conflictKeys))
		for i, k := range conflictKeys {
			keys[i] = bun.Ident(k)
		}
		q = q.On("CONFLICT ("+placeholders(len(keys))+") DO UPDATE", keys...)
		for _, f := range fields {
			q = q.Set("? = EXCLUDED.?", bun.Ident(f), bun.Ident(f))
		}
	case db.HasFeature(feature.InsertOnDuplicateKey):
		q = q.On("DUPLICATE KEY UPDATE")
		for _, f := range fields {
			q = q.Set("? = VALUES(?)", bun.Ident(f), bun.Ident(f))
		}
	default:
		return r.upsertFallback(ctx, entities)
	}

	_, err := q.Exec(ctx)
	return r.translate("upsert", err)
}

// upsertFallback inserts each entity and updates it when the insert fails.
func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, entities []*T) error {
	idb := r.session.IDB()
	for _, entity := range entities {
		if _, err := idb.NewInsert().Model(entity).Exec(ctx); err != nil {
			if _, updateErr := idb.NewUpdate().Model(entity).WherePK().Exec(ctx); updateErr != nil {
				return r.translate("upsert", updateErr)
			}
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
