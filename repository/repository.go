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
	"database/sql"
	"errors"
	"reflect"

	"github.com/tomoncle/bedrock/database"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// CrudRepository defines the read and write operations over one record type.
type CrudRepository[T any] interface {
	GetByID(ctx context.Context, id any, opts ...QueryOption) (*T, error)
	GetOneOrNone(ctx context.Context, opts ...QueryOption) (*T, error)
	GetOne(ctx context.Context, opts ...QueryOption) (*T, error)
	List(ctx context.Context, opts ...QueryOption) ([]*T, error)
	Count(ctx context.Context, opts ...QueryOption) (int, error)

	Create(ctx context.Context, entity *T, commit bool) error
	CreateMany(ctx context.Context, entities []*T, commit bool) error
	Update(ctx context.Context, entity *T, commit bool) error
	Delete(ctx context.Context, entity *T, commit bool) error
	Upsert(ctx context.Context, fields []string, conflictKeys []string, entities ...*T) error
}

// PageQueryRepository defines windowed reads.
type PageQueryRepository[T any] interface {
	Paginate(ctx context.Context, limit, offset int, opts ...QueryOption) ([]*T, int, error)
	OrderBy(q *bun.SelectQuery, orderings []Ordering) *bun.SelectQuery
}

// TransactionRepository exposes the unit of work the repository writes to.
type TransactionRepository[T any] interface {
	Session() *database.Session
	Commit(ctx context.Context) error
	Rollback() error
	Refresh(ctx context.Context, entity *T) error
}

// Repository combines CRUD, pagination, and transactional operations and
// exposes the table metadata and Bun query builders for advanced use cases.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	TransactionRepository[T]
	Table() *schema.Table
	Dialect() schema.Dialect
	Options(opts ...QueryOption) []QueryOption
	NewSelect(dest interface{}, opts ...QueryOption) *bun.SelectQuery
}

type baseRepositoryImpl[T any] struct {
	session *database.Session
	table   *schema.Table
	pk      *schema.Field
	options
}

// NewRepository returns a generic repository writing through session.
func NewRepository[T any](session *database.Session, opts ...Option) Repository[T] {
	return newBaseRepository[T](session, opts...)
}

func newBaseRepository[T any](session *database.Session, opts ...Option) *baseRepositoryImpl[T] {
	table := session.DB().Dialect().Tables().Get(reflect.TypeOf((*T)(nil)).Elem())
	r := &baseRepositoryImpl[T]{
		session: session,
		table:   table,
		options: newOptions(opts),
	}
	if len(table.PKs) == 1 {
		r.pk = table.PKs[0]
	}
	return r
}

func (r *baseRepositoryImpl[T]) Session() *database.Session { return r.session }

func (r *baseRepositoryImpl[T]) Table() *schema.Table { return r.table }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.session.DB().Dialect() }

// Options returns opts, or the default options when opts is empty.
func (r *baseRepositoryImpl[T]) Options(opts ...QueryOption) []QueryOption {
	if len(opts) > 0 {
		return opts
	}
	return r.defaults
}

// NewSelect starts a select into dest on the session, shaped by opts or the
// default options.
func (r *baseRepositoryImpl[T]) NewSelect(dest interface{}, opts ...QueryOption) *bun.SelectQuery {
	q := r.session.IDB().NewSelect().Model(dest)
	for _, opt := range r.Options(opts...) {
		if opt != nil {
			q = opt(q)
		}
	}
	return q
}

func (r *baseRepositoryImpl[T]) translate(op string, err error) error {
	err = translate(r.errs, op, r.table.Name, err)
	if err != nil {
		r.logger.Debug("Repository operation failed", "op", op, "table", r.table.Name, "error", err)
	}
	return err
}

// autoflush writes staged operations so that reads observe them.
func (r *baseRepositoryImpl[T]) autoflush(ctx context.Context, op string) error {
	return r.translate(op, r.session.Flush(ctx))
}

func (r *baseRepositoryImpl[T]) wherePK(id any) (QueryOption, error) {
	if r.pk == nil {
		return nil, usageErrorf("%s must have exactly one primary key", r.table.TypeName)
	}
	return WhereColumn(r.pk.Name, id), nil
}

// GetByID returns the record with primary key id, or nil when absent.
func (r *baseRepositoryImpl[T]) GetByID(ctx context.Context, id any, opts ...QueryOption) (*T, error) {
	where, err := r.wherePK(id)
	if err != nil {
		return nil, err
	}
	base := r.Options(opts...)
	all := make([]QueryOption, 0, len(base)+1)
	all = append(all, base...)
	all = append(all, where)
	return r.GetOneOrNone(ctx, all...)
}

// GetOneOrNone returns the first matching record, or nil.
func (r *baseRepositoryImpl[T]) GetOneOrNone(ctx context.Context, opts ...QueryOption) (*T, error) {
	if err := r.autoflush(ctx, "get"); err != nil {
		return nil, err
	}
	entity := new(T)
	err := r.NewSelect(entity, opts...).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.translate("get", err)
	}
	return entity, nil
}

// GetOne returns the first matching record or a NotFound error.
func (r *baseRepositoryImpl[T]) GetOne(ctx context.Context, opts ...QueryOption) (*T, error) {
	entity, err := r.GetOneOrNone(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, r.translate("get_one", sql.ErrNoRows)
	}
	return entity, nil
}

// List returns every matching record, at most once per primary key.
func (r *baseRepositoryImpl[T]) List(ctx context.Context, opts ...QueryOption) ([]*T, error) {
	if err := r.autoflush(ctx, "list"); err != nil {
		return nil, err
	}
	var entities []*T
	if err := r.NewSelect(&entities, opts...).Scan(ctx); err != nil {
		return nil, r.translate("list", err)
	}
	return r.unique(entities), nil
}

// Paginate returns one window of records and the total number of matches.
// The count ignores ordering, limit and offset. On the pool both queries
// run concurrently; inside a transaction they share its connection and run
// one after the other. A limit <= 0 returns every row.
func (r *baseRepositoryImpl[T]) Paginate(ctx context.Context, limit, offset int, opts ...QueryOption) ([]*T, int, error) {
	if err := r.autoflush(ctx, "paginate"); err != nil {
		return nil, 0, err
	}
	var entities []*T
	q := r.NewSelect(&entities, opts...)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	count, err := q.ScanAndCount(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, r.translate("paginate", err)
	}
	return r.unique(entities), count, nil
}

// Count returns the number of matching records.
func (r *baseRepositoryImpl[T]) Count(ctx context.Context, opts ...QueryOption) (int, error) {
	if err := r.autoflush(ctx, "count"); err != nil {
		return 0, err
	}
	count, err := r.NewSelect((*T)(nil), opts...).Count(ctx)
	if err != nil {
		return 0, r.translate("count", err)
	}
	return count, nil
}

// OrderBy appends orderings to q, resolved against this repository's table.
func (r *baseRepositoryImpl[T]) OrderBy(q *bun.SelectQuery, orderings []Ordering) *bun.SelectQuery {
	return orderBy(r.table, q, orderings)
}

func (r *baseRepositoryImpl[T]) unique(entities []*T) []*T {
	if r.pk == nil || len(entities) < 2 {
		return entities
	}
	seen := make(map[interface{}]struct{}, len(entities))
	result := entities[:0]
	for _, e := range entities {
		key := r.pk.Value(reflect.ValueOf(e).Elem()).Interface()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, e)
	}
	return result
}

// Create stages entity for insert. With commit the session is committed and
// entity reloaded, so defaults assigned by the engine are visible.
func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity *T, commit bool) error {
	r.session.Add(entity)
	if !commit {
		return nil
	}
	if err := r.Commit(ctx); err != nil {
		return r.translate("create", err)
	}
	return r.Refresh(ctx, entity)
}

// CreateMany stages entities for insert and, with commit, commits them.
func (r *baseRepositoryImpl[T]) CreateMany(ctx context.Context, entities []*T, commit bool) error {
	for _, e := range entities {
		r.session.Add(e)
	}
	if !commit {
		return nil
	}
	return r.translate("create_many", r.Commit(ctx))
}

// Update stages entity for update. updated_at is touched on flush.
func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T, commit bool) error {
	r.session.MarkDirty(entity)
	if !commit {
		return nil
	}
	if err := r.Commit(ctx); err != nil {
		return r.translate("update", err)
	}
	return r.Refresh(ctx, entity)
}

// Delete stages entity for delete and, with commit, commits it.
func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, entity *T, commit bool) error {
	r.session.Remove(entity)
	if !commit {
		return nil
	}
	return r.translate("delete", r.Commit(ctx))
}

func (r *baseRepositoryImpl[T]) Commit(ctx context.Context) error {
	return r.translate("commit", r.session.Commit(ctx))
}

func (r *baseRepositoryImpl[T]) Rollback() error {
	return r.translate("rollback", r.session.Rollback())
}

// Refresh reloads entity from storage by primary key.
func (r *baseRepositoryImpl[T]) Refresh(ctx context.Context, entity *T) error {
	if err := r.autoflush(ctx, "refresh"); err != nil {
		return err
	}
	return r.translate("refresh", r.session.Refresh(ctx, entity))
}
