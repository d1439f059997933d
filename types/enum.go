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

import (
	"strconv"
	"strings"
)

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// SortOrder is the direction of a table sort.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

var _ BaseEnum = Ascending

// ParseSortOrder accepts asc, ascending, desc and descending in any case.
// Anything else yields an invalid SortOrder.
func ParseSortOrder(s string) SortOrder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending
	case "desc", "descending":
		return Descending
	}
	return SortOrder(s)
}

func (o SortOrder) IsValid() bool { return o == Ascending || o == Descending }

func (o SortOrder) Number() int {
	switch o {
	case Ascending:
		return 0
	case Descending:
		return 1
	}
	return IllegalValue
}

func (o SortOrder) String() string { return string(o) }

func (o SortOrder) Name() string {
	switch o {
	case Ascending:
		return "ASCENDING"
	case Descending:
		return "DESCENDING"
	}
	return IllegalName
}

func (o SortOrder) Desc() string {
	switch o {
	case Ascending:
		return "ascending order"
	case Descending:
		return "descending order"
	}
	return IllegalDesc
}

// PageSize enumerates the page sizes offered to table views.
type PageSize int

const (
	PageSizeTen        PageSize = 10
	PageSizeTwentyFive PageSize = 25
	PageSizeFifty      PageSize = 50
)

var _ BaseEnum = PageSizeTen

// PageSizes lists the valid page sizes in ascending order.
func PageSizes() []PageSize {
	return []PageSize{PageSizeTen, PageSizeTwentyFive, PageSizeFifty}
}

func (p PageSize) IsValid() bool {
	switch p {
	case PageSizeTen, PageSizeTwentyFive, PageSizeFifty:
		return true
	}
	return false
}

func (p PageSize) Number() int {
	if !p.IsValid() {
		return IllegalValue
	}
	return int(p)
}

func (p PageSize) String() string { return strconv.Itoa(int(p)) }

func (p PageSize) Name() string {
	switch p {
	case PageSizeTen:
		return "TEN"
	case PageSizeTwentyFive:
		return "TWENTY_FIVE"
	case PageSizeFifty:
		return "FIFTY"
	}
	return IllegalName
}

func (p PageSize) Desc() string {
	if !p.IsValid() {
		return IllegalDesc
	}
	return p.String() + " rows per page"
}
