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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/tomoncle/bedrock/cache"
	"github.com/tomoncle/bedrock/database"
	"github.com/tomoncle/bedrock/repository"
	"github.com/tomoncle/bedrock/types"
)

// Service exposes a repository in terms of external representations R of
// the record type T.
type Service[T any, R any] interface {
	// GetByID returns the representation of the record with primary key
	// id, or nil when there is none.
	GetByID(ctx context.Context, id any, opts ...repository.QueryOption) (*R, error)

	// Get returns the first record matching opts, or nil.
	Get(ctx context.Context, opts ...repository.QueryOption) (*R, error)

	// GetMulti returns one sorted window of records and the total count.
	GetMulti(ctx context.Context, params types.MultiParams, opts ...repository.QueryOption) (*types.PaginatedResults[R], error)

	// List returns every record matching opts.
	List(ctx context.Context, opts ...repository.QueryOption) ([]*R, error)

	// Create builds a record from payload and commits it.
	Create(ctx context.Context, payload any) (*R, error)

	// Update writes the payload columns onto entity and commits it.
	Update(ctx context.Context, entity *T, payload any) (*R, error)

	// UpdateByID loads the record with primary key id and updates it.
	UpdateByID(ctx context.Context, id any, payload any) (*R, error)

	// Remove deletes the record with primary key id and returns what it
	// was, or nil when there is none.
	Remove(ctx context.Context, id any) (*R, error)

	// Repository returns the underlying repository.
	Repository() repository.Repository[T]
}

// Presenter converts a record into its external representation.
type Presenter[T any, R any] func(*T) (*R, error)

type serviceOptions struct {
	store  cache.Store
	ttl    time.Duration
	keys   cache.KeySpace
	logger database.Logger
}

type ServiceOption func(*serviceOptions)

// WithCache caches GetByID results in store for ttl.
func WithCache(store cache.Store, ttl time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.store = store
		o.ttl = ttl
	}
}

// WithKeySpace sets the cache key prefix. The default prefix is "bedrock".
func WithKeySpace(keys cache.KeySpace) ServiceOption {
	return func(o *serviceOptions) { o.keys = keys }
}

func WithServiceLogger(logger database.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

type baseServiceImpl[T any, R any] struct {
	repo    repository.Repository[T]
	present Presenter[T, R]
	serviceOptions
}

// NewService returns a Service over repo that presents records with
// present.
func NewService[T any, R any](repo repository.Repository[T], present Presenter[T, R], opts ...ServiceOption) Service[T, R] {
	o := serviceOptions{keys: cache.NewKeySpace("bedrock"), logger: database.GetLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &baseServiceImpl[T, R]{repo: repo, present: present, serviceOptions: o}
}

// NewModelService returns a Service whose representation is the record
// itself.
func NewModelService[T any](repo repository.Repository[T], opts ...ServiceOption) Service[T, T] {
	return NewService[T, T](repo, func(t *T) (*T, error) { return t, nil }, opts...)
}

func (s *baseServiceImpl[T, R]) Repository() repository.Repository[T] { return s.repo }

func (s *baseServiceImpl[T, R]) cacheKey(id any) string {
	return s.keys.Key(s.repo.Table().Name, id)
}

// GetByID consults the cache only for calls without options, since options
// change the shape of the result.
func (s *baseServiceImpl[T, R]) GetByID(ctx context.Context, id any, opts ...repository.QueryOption) (*R, error) {
	cacheable := s.store != nil && len(opts) == 0
	if cacheable {
		cached := new(R)
		ok, err := cache.GetValue(ctx, s.store, s.cacheKey(id), cached)
		if err != nil {
			s.logger.Warn("Cache read failed", "key", s.cacheKey(id), "error", err)
		} else if ok {
			return cached, nil
		}
	}

	entity, err := s.repo.GetByID(ctx, id, opts...)
	if err != nil || entity == nil {
		return nil, err
	}
	result, err := s.present(entity)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := cache.SetValue(ctx, s.store, s.cacheKey(id), result, s.ttl); err != nil {
			s.logger.Warn("Cache write failed", "key", s.cacheKey(id), "error", err)
		}
	}
	return result, nil
}

func (s *baseServiceImpl[T, R]) Get(ctx context.Context, opts ...repository.QueryOption) (*R, error) {
	entity, err := s.repo.GetOneOrNone(ctx, opts...)
	if err != nil || entity == nil {
		return nil, err
	}
	return s.present(entity)
}

// GetMulti sorts by params.SortField when it names a column and by the
// primary key otherwise.
func (s *baseServiceImpl[T, R]) GetMulti(ctx context.Context, params types.MultiParams, opts ...repository.QueryOption) (*types.PaginatedResults[R], error) {
	p := params.Normalized()
	table := s.repo.Table()

	field := p.SortField
	if !table.HasField(field) {
		field = ""
		if len(table.PKs) > 0 {
			field = table.PKs[0].Name
		}
	}

	base := s.repo.Options(opts...)
	all := make([]repository.QueryOption, 0, len(base)+1)
	all = append(all, base...)
	if field != "" {
		all = append(all, repository.Ordered(repository.Ordering{
			Path: []string{field},
			Desc: p.Direction == types.Descending,
		}))
	}

	entities, count, err := s.repo.Paginate(ctx, p.Limit, p.Skip, all...)
	if err != nil {
		return nil, err
	}
	results, err := s.presentAll(entities)
	if err != nil {
		return nil, err
	}
	page := types.NewPaginatedResults[R](p.Limit, p.Skip)
	page.Count = count
	page.Results = results
	return page, nil
}

func (s *baseServiceImpl[T, R]) List(ctx context.Context, opts ...repository.QueryOption) ([]*R, error) {
	entities, err := s.repo.List(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return s.presentAll(entities)
}

// Create maps payload onto a new record by column name. Nil values are
// left out so that column defaults apply.
func (s *baseServiceImpl[T, R]) Create(ctx context.Context, payload any) (*R, error) {
	values, err := s.columnValues(payload, false, true)
	if err != nil {
		return nil, err
	}
	entity := new(T)
	if err := database.FromColumnValues(values, entity); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.repo.Table().Name, err)
	}
	if err := s.repo.Create(ctx, entity, true); err != nil {
		return nil, err
	}
	return s.present(entity)
}

// Update writes only the payload keys that are columns of T. The primary
// key is never written. A nil value in a map payload clears its column;
// nil fields of a struct payload count as unset.
func (s *baseServiceImpl[T, R]) Update(ctx context.Context, entity *T, payload any) (*R, error) {
	_, isMap := payload.(map[string]any)
	values, err := s.columnValues(payload, true, !isMap)
	if err != nil {
		return nil, err
	}
	if err := database.FromColumnValues(values, entity); err != nil {
		return nil, fmt.Errorf("update %s: %w", s.repo.Table().Name, err)
	}
	if err := s.repo.Update(ctx, entity, true); err != nil {
		return nil, err
	}
	s.invalidate(ctx, entity)
	return s.present(entity)
}

// UpdateByID fails with a NotFound error when id does not exist.
func (s *baseServiceImpl[T, R]) UpdateByID(ctx context.Context, id any, payload any) (*R, error) {
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, &repository.Error{
			Kind:  repository.ErrNotFound,
			Op:    "update",
			Table: s.repo.Table().Name,
			Err:   fmt.Errorf("id %v", id),
		}
	}
	return s.Update(ctx, entity, payload)
}

func (s *baseServiceImpl[T, R]) Remove(ctx context.Context, id any) (*R, error) {
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil || entity == nil {
		return nil, err
	}
	result, err := s.present(entity)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, entity, true); err != nil {
		return nil, err
	}
	s.invalidate(ctx, entity)
	return result, nil
}

func (s *baseServiceImpl[T, R]) presentAll(entities []*T) ([]*R, error) {
	results := make([]*R, 0, len(entities))
	for _, e := range entities {
		r, err := s.present(e)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *baseServiceImpl[T, R]) invalidate(ctx context.Context, entity *T) {
	if s.store == nil {
		return
	}
	table := s.repo.Table()
	if len(table.PKs) != 1 {
		return
	}
	id := table.PKs[0].Value(reflect.ValueOf(entity).Elem()).Interface()
	if err := s.store.Delete(ctx, s.cacheKey(id)); err != nil {
		s.logger.Warn("Cache invalidation failed", "key", s.cacheKey(id), "error", err)
	}
}

// columnValues reads payload into a map keyed by column name and keeps the
// keys that are columns of T.
func (s *baseServiceImpl[T, R]) columnValues(payload any, skipPK, dropNil bool) (map[string]any, error) {
	raw, err := payloadMap(payload)
	if err != nil {
		return nil, err
	}
	table := s.repo.Table()
	values := make(map[string]any, len(raw))
	for k, v := range raw {
		f, ok := table.FieldMap[k]
		if !ok {
			continue
		}
		if skipPK && f.IsPK {
			continue
		}
		if dropNil && v == nil {
			continue
		}
		values[k] = v
	}
	return values, nil
}

// payloadMap accepts a map or a struct described by json tags.
func payloadMap(payload any) (map[string]any, error) {
	switch p := payload.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return p, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("payload %T: %w", payload, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("payload %T is not an object: %w", payload, err)
	}
	return m, nil
}
