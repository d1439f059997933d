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

package types

import "time"

// BeforeAfter restricts a datetime column to an open window. A nil bound is
// not applied.
type BeforeAfter struct {
	FieldName string
	Before    *time.Time
	After     *time.Time
}

// CreatedBetween filters on created_at.
func CreatedBetween(before, after *time.Time) BeforeAfter {
	return BeforeAfter{FieldName: "created_at", Before: before, After: after}
}

// UpdatedBetween filters on updated_at.
func UpdatedBetween(before, after *time.Time) BeforeAfter {
	return BeforeAfter{FieldName: "updated_at", Before: before, After: after}
}

// CollectionFilter restricts a column to a set of values. A nil Values
// slice is not applied; an empty non-nil one matches nothing.
type CollectionFilter struct {
	FieldName string
	Values    []interface{}
}

// NewCollectionFilter builds a filter on field from typed values.
func NewCollectionFilter[V any](field string, values []V) CollectionFilter {
	if values == nil {
		return CollectionFilter{FieldName: field}
	}
	vs := make([]interface{}, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return CollectionFilter{FieldName: field, Values: vs}
}

// IDFilter restricts the id column.
func IDFilter[V any](ids []V) CollectionFilter {
	return NewCollectionFilter("id", ids)
}
