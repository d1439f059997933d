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
	"github.com/tomoncle/bedrock/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// ApplyFilters turns filter parameters into one query option. Accepted
// filters are types.BeforeAfter, types.CollectionFilter and
// types.LimitOffset, by value or pointer. An unknown column or filter type
// fails the query with a usage error.
func ApplyFilters(filters ...interface{}) QueryOption {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		tm, ok := q.GetModel().(bun.TableModel)
		if !ok {
			return q.Err(usageErrorf("filters need a table model"))
		}
		table := tm.Table()
		for _, f := range filters {
			var err error
			switch f := f.(type) {
			case nil:
			case types.BeforeAfter:
				q, err = filterBeforeAfter(table, q, f)
			case *types.BeforeAfter:
				q, err = filterBeforeAfter(table, q, *f)
			case types.CollectionFilter:
				q, err = filterCollection(table, q, f)
			case *types.CollectionFilter:
				q, err = filterCollection(table, q, *f)
			case types.LimitOffset:
				q = q.Limit(f.Limit).Offset(f.Offset)
			case *types.LimitOffset:
				q = q.Limit(f.Limit).Offset(f.Offset)
			default:
				err = usageErrorf("unsupported filter %T", f)
			}
			if err != nil {
				return q.Err(err)
			}
		}
		return q
	}
}

func filterBeforeAfter(table *schema.Table, q *bun.SelectQuery, f types.BeforeAfter) (*bun.SelectQuery, error) {
	field := lookupField(table, f.FieldName)
	if field == nil {
		return q, usageErrorf("%s has no column %q", table.TypeName, f.FieldName)
	}
	if f.Before != nil {
		q = q.Where("?TableAlias.? < ?", bun.Ident(field.Name), f.Before.UTC())
	}
	if f.After != nil {
		q = q.Where("?TableAlias.? > ?", bun.Ident(field.Name), f.After.UTC())
	}
	return q, nil
}

func filterCollection(table *schema.Table, q *bun.SelectQuery, f types.CollectionFilter) (*bun.SelectQuery, error) {
	name := f.FieldName
	if name == "" {
		name = "id"
	}
	field := lookupField(table, name)
	if field == nil {
		return q, usageErrorf("%s has no column %q", table.TypeName, name)
	}
	switch {
	case f.Values == nil:
		return q, nil
	case len(f.Values) == 0:
		return q.Where("1 = 0"), nil
	}
	return q.Where("?TableAlias.? IN (?)", bun.Ident(field.Name), bun.In(f.Values)), nil
}
