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
	SlugColumn      = "slug"
	IsDeletedColumn = "is_deleted"
	ExpiresAtColumn = "expires_at"
)

// DefaultLifetime is added to the current time to compute expires_at when a
// record does not say otherwise.
const DefaultLifetime = time.Hour

// SlugFields adds a URL-safe unique slug. Uniqueness is enforced by the
// uq_<table>_slug index created by migrations.
type SlugFields struct {
	Slug string `bun:"slug,notnull" json:"slug"`
}

func (f *SlugFields) SlugField() *SlugFields { return f }

// SlugRecord is implemented by records embedding SlugFields.
type SlugRecord interface {
	SlugField() *SlugFields
}

// SoftDeleteFields flags a row as logically deleted. It does not filter
// queries by itself.
type SoftDeleteFields struct {
	IsDeleted bool `bun:"is_deleted,notnull,default:false" json:"is_deleted"`
}

func (f *SoftDeleteFields) SoftDelete() *SoftDeleteFields { return f }

// SoftDeleteRecord is implemented by records embedding SoftDeleteFields.
type SoftDeleteRecord interface {
	SoftDelete() *SoftDeleteFields
}

// ExpiryFields marks a row for removal by the expiry sweep once expires_at
// is in the past.
type ExpiryFields struct {
	ExpiresAt time.Time `bun:"expires_at,notnull" json:"expires_at"`
}

func (f *ExpiryFields) Expiry() *ExpiryFields { return f }

// ExpireIn sets expires_at to now plus the given lifetime.
func (f *ExpiryFields) ExpireIn(now time.Time, lifetime time.Duration) {
	f.ExpiresAt = now.Add(lifetime).UTC()
}

// Expired reports whether expires_at is strictly before now.
func (f *ExpiryFields) Expired(now time.Time) bool {
	return f.ExpiresAt.Before(now)
}

// ExpiryRecord is implemented by records embedding ExpiryFields.
type ExpiryRecord interface {
	Expiry() *ExpiryFields
}

// Lifetimer lets an expirable record override DefaultLifetime.
type Lifetimer interface {
	Lifetime() time.Duration
}

// LifetimeOf returns the lifetime used for a record's default expiry.
func LifetimeOf(record any) time.Duration {
	if l, ok := record.(Lifetimer); ok && l.Lifetime() > 0 {
		return l.Lifetime()
	}
	return DefaultLifetime
}

// SluggablePtr constrains a type parameter to pointers of records with a slug.
type SluggablePtr[T any] interface {
	*T
	SlugRecord
}

// ExpirablePtr constrains a type parameter to pointers of expirable records.
type ExpirablePtr[T any] interface {
	*T
	ExpiryRecord
}

// SoftDeletablePtr constrains a type parameter to pointers of soft-deletable
// records.
type SoftDeletablePtr[T any] interface {
	*T
	SoftDeleteRecord
}
