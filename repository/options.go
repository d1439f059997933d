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
	"github.com/tomoncle/bedrock/database"
	"github.com/tomoncle/bedrock/model"
	"github.com/uptrace/bun"
)

// QueryOption shapes a select query: eager loads, filters, ordering.
type QueryOption = func(*bun.SelectQuery) *bun.SelectQuery

// WithRelation eager-loads a relation by its Go field path, e.g.
// "Author.Company". An unknown relation fails the query.
func WithRelation(name string, apply ...QueryOption) QueryOption {
	if len(apply) == 0 {
		return func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Relation(name)
		}
	}
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation(name, func(rq *bun.SelectQuery) *bun.SelectQuery {
			return rq.Apply(apply...)
		})
	}
}

// Where adds a condition on the query, with bun placeholders.
func Where(query string, args ...interface{}) QueryOption {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where(query, args...)
	}
}

// WhereColumn adds "<table alias>.<column> = value".
func WhereColumn(column string, value interface{}) QueryOption {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.? = ?", bun.Ident(column), value)
	}
}

// NotDeleted skips soft-deleted rows.
func NotDeleted() QueryOption {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.? = ?", bun.Ident(model.IsDeletedColumn), false)
	}
}

type options struct {
	defaults []QueryOption
	errs     Errors
	logger   database.Logger
}

// Option configures a repository.
type Option func(*options)

// WithDefaultOptions sets the options used by reads called without options.
func WithDefaultOptions(opts ...QueryOption) Option {
	return func(o *options) { o.defaults = opts }
}

// WithErrors installs narrower error kinds, see NewErrors.
func WithErrors(errs Errors) Option {
	return func(o *options) {
		def := DefaultErrors()
		if errs.Base == nil {
			errs.Base = def.Base
		}
		if errs.Conflict == nil {
			errs.Conflict = def.Conflict
		}
		if errs.NotFound == nil {
			errs.NotFound = def.NotFound
		}
		o.errs = errs
	}
}

// WithLogger replaces the repository logger.
func WithLogger(logger database.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{errs: DefaultErrors(), logger: database.GetLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
