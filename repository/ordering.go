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
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Ordering is one ORDER BY entry. A one-element Path names a column of the
// queried table; a longer Path walks has-one or belongs-to relations and
// ends with a column of the last related table. Elements may be bun column
// names or Go field names.
type Ordering struct {
	Path []string
	Desc bool
}

// Asc orders by a dotted path, e.g. Asc("author.name").
func Asc(path string) Ordering {
	return Ordering{Path: strings.Split(path, ".")}
}

// Desc orders by a dotted path in descending order.
func Desc(path string) Ordering {
	return Ordering{Path: strings.Split(path, "."), Desc: true}
}

func (o Ordering) direction() string {
	if o.Desc {
		return "DESC"
	}
	return "ASC"
}

// Ordered applies orderings to a query on a table model. Entries whose path
// does not resolve are skipped.
func Ordered(orderings ...Ordering) QueryOption {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		tm, ok := q.GetModel().(bun.TableModel)
		if !ok {
			return q
		}
		return orderBy(tm.Table(), q, orderings)
	}
}

func orderBy(table *schema.Table, q *bun.SelectQuery, orderings []Ordering) *bun.SelectQuery {
	for _, o := range orderings {
		switch len(o.Path) {
		case 0:
			continue
		case 1:
			if f := lookupField(table, o.Path[0]); f != nil {
				q = q.OrderExpr("?TableAlias.? "+o.direction(), bun.Ident(f.Name))
			}
		default:
			relPath, alias, f, ok := resolvePath(table, o.Path)
			if !ok {
				continue
			}
			q = q.Relation(relPath).OrderExpr("?.? "+o.direction(), bun.Ident(alias), bun.Ident(f.Name))
		}
	}
	return q
}

// resolvePath walks the relation hops of path. It returns the bun relation
// path, the join alias and the final column.
func resolvePath(table *schema.Table, path []string) (string, string, *schema.Field, bool) {
	goNames := make([]string, 0, len(path)-1)
	aliases := make([]string, 0, len(path)-1)
	t := table
	for _, hop := range path[:len(path)-1] {
		rel := lookupRelation(t, hop)
		if rel == nil {
			return "", "", nil, false
		}
		if rel.Type != schema.HasOneRelation && rel.Type != schema.BelongsToRelation {
			return "", "", nil, false
		}
		goNames = append(goNames, rel.Field.GoName)
		aliases = append(aliases, rel.Field.Name)
		t = rel.JoinTable
	}
	f := lookupField(t, path[len(path)-1])
	if f == nil {
		return "", "", nil, false
	}
	return strings.Join(goNames, "."), strings.Join(aliases, "__"), f, true
}

func lookupField(t *schema.Table, name string) *schema.Field {
	if f, ok := t.FieldMap[name]; ok {
		return f
	}
	for _, f := range t.Fields {
		if f.GoName == name {
			return f
		}
	}
	return nil
}

func lookupRelation(t *schema.Table, name string) *schema.Relation {
	if rel, ok := t.Relations[name]; ok {
		return rel
	}
	for _, rel := range t.Relations {
		if rel.Field.Name == name {
			return rel
		}
	}
	return nil
}
