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
	"context"
	"math/rand/v2"

	"github.com/gosimple/slug"
	"github.com/tomoncle/bedrock/database"
	"github.com/tomoncle/bedrock/model"
)

const (
	slugSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	slugSuffixLength   = 4
)

// randomSuffix is replaced in tests.
var randomSuffix = func() string {
	b := make([]byte, slugSuffixLength)
	for i := range b {
		b[i] = slugSuffixAlphabet[rand.IntN(len(slugSuffixAlphabet))]
	}
	return string(b)
}

// Slugify canonicalizes text into a lowercase, dash separated slug.
func Slugify(text string) string {
	return slug.Make(text)
}

// SlugRepository adds slug lookup and slug allocation.
type SlugRepository[T any] interface {
	Repository[T]
	GetBySlug(ctx context.Context, slug string, opts ...QueryOption) (*T, error)
	GetAvailableSlug(ctx context.Context, text string) (string, error)
}

type slugRepositoryImpl[T any, PT model.SluggablePtr[T]] struct {
	*baseRepositoryImpl[T]
}

// NewSlugRepository returns a repository for records embedding
// model.SlugFields.
func NewSlugRepository[T any, PT model.SluggablePtr[T]](session *database.Session, opts ...Option) SlugRepository[T] {
	return &slugRepositoryImpl[T, PT]{baseRepositoryImpl: newBaseRepository[T](session, opts...)}
}

// GetBySlug returns the record with the given slug, or nil.
func (r *slugRepositoryImpl[T, PT]) GetBySlug(ctx context.Context, s string, opts ...QueryOption) (*T, error) {
	base := r.Options(opts...)
	all := make([]QueryOption, 0, len(base)+1)
	all = append(all, base...)
	all = append(all, WhereColumn(model.SlugColumn, s))
	return r.GetOneOrNone(ctx, all...)
}

// GetAvailableSlug slugifies text and, when the slug is taken, appends a
// random four character suffix. The suffixed slug is not checked again;
// the unique index on slug rejects the rare collision at write time.
func (r *slugRepositoryImpl[T, PT]) GetAvailableSlug(ctx context.Context, text string) (string, error) {
	candidate := Slugify(text)
	if candidate == "" {
		return "", usageErrorf("%q has no characters usable in a slug", text)
	}
	if err := r.autoflush(ctx, "slug"); err != nil {
		return "", err
	}
	taken, err := r.session.IDB().NewSelect().
		Model((*T)(nil)).
		Apply(WhereColumn(model.SlugColumn, candidate)).
		Exists(ctx)
	if err != nil {
		return "", r.translate("slug", err)
	}
	if !taken {
		return candidate, nil
	}
	return candidate + "-" + randomSuffix(), nil
}
