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

package model

import "time"

const (
	CreatedAtColumn = "created_at"
	UpdatedAtColumn = "updated_at"
)

// TimestampFields records when a row was inserted and last modified. Both
// columns are maintained by the session; callers should not assign them.
type TimestampFields struct {
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at"`
}

// Timestamps returns the timestamp fields of the record.
func (f *TimestampFields) Timestamps() *TimestampFields { return f }

// MarkCreated stamps an insert. An explicit creation time survives so that
// imports can keep their original dates; updated_at always starts empty.
func (f *TimestampFields) MarkCreated(now time.Time) {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = time.Time{}
}

// Touch sets updated_at to now, replacing any value the caller assigned.
func (f *TimestampFields) Touch(now time.Time) {
	f.UpdatedAt = now
}

// TimestampRecord is implemented by records embedding TimestampFields.
type TimestampRecord interface {
	Timestamps() *TimestampFields
}
