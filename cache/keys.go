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

package cache

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// KeySpace prefixes every key with the application slug so that several
// applications can share one redis database.
type KeySpace struct {
	prefix string
}

// NewKeySpace derives the prefix from an application name, e.g.
// "My App" becomes "my-app".
func NewKeySpace(appName string) KeySpace {
	return KeySpace{prefix: slug.Make(appName)}
}

func (k KeySpace) Prefix() string { return k.prefix }

// Key returns <app-slug>:<table>:<id>.
func (k KeySpace) Key(table string, id interface{}) string {
	return k.Join(table, fmt.Sprint(id))
}

// Join returns the prefix and parts separated by colons.
func (k KeySpace) Join(parts ...string) string {
	all := make([]string, 0, len(parts)+1)
	if k.prefix != "" {
		all = append(all, k.prefix)
	}
	all = append(all, parts...)
	return strings.Join(all, ":")
}
