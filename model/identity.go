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

import (
	"github.com/google/uuid"
)

// GUIDFields gives a record a random 128-bit primary key. The value is
// assigned before insert when the caller left it empty and never changes
// afterwards.
type GUIDFields struct {
	ID uuid.UUID `bun:"id,pk,type:varchar(36)" json:"id"`
}

// GUID returns the identity fields of the record.
func (f *GUIDFields) GUID() *GUIDFields { return f }

// EnsureID assigns a new random identifier if none is set and reports
// whether it did.
func (f *GUIDFields) EnsureID() bool {
	if f.ID != uuid.Nil {
		return false
	}
	f.ID = uuid.New()
	return true
}

// GUIDRecord is implemented by records embedding GUIDFields.
type GUIDRecord interface {
	GUID() *GUIDFields
}

// IntIDFields gives a record an engine-assigned integer primary key.
type IntIDFields struct {
	ID int64 `bun:"id,pk,autoincrement" json:"id"`
}

// IntID returns the identity fields of the record.
func (f *IntIDFields) IntID() *IntIDFields { return f }

// IntIDRecord is implemented by records embedding IntIDFields.
type IntIDRecord interface {
	IntID() *IntIDFields
}
