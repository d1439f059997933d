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
	"reflect"

	"github.com/tomoncle/bedrock/database"
	"github.com/tomoncle/bedrock/model"
	"github.com/uptrace/bun"
)

// ExpiryRepository adds the bulk removal of expired records.
type ExpiryRepository[T any] interface {
	Repository[T]
	DeleteExpired(ctx context.Context) (int64, error)
}

type expiryRepositoryImpl[T any, PT model.ExpirablePtr[T]] struct {
	*baseRepositoryImpl[T]
}

// NewExpiryRepository returns a repository for records embedding
// model.ExpiryFields.
func NewExpiryRepository[T any, PT model.ExpirablePtr[T]](session *database.Session, opts ...Option) ExpiryRepository[T] {
	return &expiryRepositoryImpl[T, PT]{baseRepositoryImpl: newBaseRepository[T](session, opts...)}
}

// DeleteExpired deletes, in one statement, every record whose expires_at is
// before the session clock. It runs on the session's transaction when one
// is open and does not commit.
func (r *expiryRepositoryImpl[T, PT]) DeleteExpired(ctx context.Context) (int64, error) {
	if err := r.autoflush(ctx, "delete_expired"); err != nil {
		return 0, err
	}
	n, err := deleteExpired(ctx, r.session, (*T)(nil))
	if err != nil {
		return 0, r.translate("delete_expired", err)
	}
	r.logger.Debug("Deleted expired records", "table", r.table.Name, "count", n)
	return n, nil
}

// DeleteExpired is DeleteExpired for a model known only at run time, such
// as a registry instance. model must embed model.ExpiryFields.
func DeleteExpired(ctx context.Context, session *database.Session, m interface{}) (int64, error) {
	if _, ok := m.(model.ExpiryRecord); !ok {
		return 0, usageErrorf("%T has no expires_at column", m)
	}
	table := session.DB().Dialect().Tables().Get(reflect.TypeOf(m).Elem())
	errs := DefaultErrors()
	if err := translate(errs, "delete_expired", table.Name, session.Flush(ctx)); err != nil {
		return 0, err
	}
	// a typed nil keeps the caller's instance untouched
	n, err := deleteExpired(ctx, session, reflect.Zero(reflect.TypeOf(m)).Interface())
	return n, translate(errs, "delete_expired", table.Name, err)
}

func deleteExpired(ctx context.Context, session *database.Session, m interface{}) (int64, error) {
	res, err := session.IDB().NewDelete().
		Model(m).
		Where("? < ?", bun.Ident(model.ExpiresAtColumn), session.Now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
