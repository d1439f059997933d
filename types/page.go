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

const (
	// DefaultPageSize is the page size used when a request does not set one.
	DefaultPageSize = 20
	// DefaultMultiLimit bounds GetMulti when no limit is given.
	DefaultMultiLimit = 100
)

// LimitOffset is a window over a result set.
type LimitOffset struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewLimitOffset converts a 1-based page number and a page size into a
// window. Pages below 1 become 1 and sizes below 1 become DefaultPageSize.
func NewLimitOffset(page, pageSize int) LimitOffset {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return LimitOffset{Limit: pageSize, Offset: pageSize * (page - 1)}
}

// MultiParams drives Service.GetMulti.
type MultiParams struct {
	Skip      int       `json:"skip"`
	Limit     int       `json:"limit"`
	SortField string    `json:"sort_field,omitempty"`
	Direction SortOrder `json:"direction,omitempty"`
}

// Normalized fills the defaults: limit DefaultMultiLimit, negative skip 0
// and descending order when no valid direction is set.
func (p MultiParams) Normalized() MultiParams {
	if p.Limit <= 0 {
		p.Limit = DefaultMultiLimit
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	if !p.Direction.IsValid() {
		p.Direction = Descending
	}
	return p
}

// TotaledResults holds a result set and its size.
type TotaledResults[R any] struct {
	Count   int  `json:"count"`
	Results []*R `json:"results"`
}

// PaginatedResults holds one window of a result set, the window bounds and
// the size of the whole result set.
type PaginatedResults[R any] struct {
	Count   int  `json:"count"`
	Limit   int  `json:"limit"`
	Skip    int  `json:"skip"`
	Results []*R `json:"results"`
}

// NewPaginatedResults returns an empty window.
func NewPaginatedResults[R any](limit, skip int) *PaginatedResults[R] {
	return &PaginatedResults[R]{Limit: limit, Skip: skip, Results: make([]*R, 0)}
}
