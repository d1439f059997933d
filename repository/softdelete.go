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

	"github.com/tomoncle/bedrock/database"
	"github.com/tomoncle/bedrock/model"
)

// SoftDeleteRepository flags records as deleted instead of removing them.
type SoftDeleteRepository[T any] interface {
	Repository[T]
	SoftDelete(ctx context.Context, entity *T, commit bool) error
	Restore(ctx context.Context, entity *T, commit bool) error
}

type softDeleteRepositoryImpl[T any, PT model.SoftDeletablePtr[T]] struct {
	*baseRepositoryImpl[T]
}

// NewSoftDeleteRepository returns a repository for records embedding
// model.SoftDeleteFields. Reads include flagged rows unless NotDeleted is
// passed.
func NewSoftDeleteRepository[T any, PT model.SoftDeletablePtr[T]](session *database.Session, opts ...Option) SoftDeleteRepository[T] {
	return &softDeleteRepositoryImpl[T, PT]{baseRepositoryImpl: newBaseRepository[T](session, opts...)}
}

// SoftDelete sets is_deleted and stages the update.
func (r *softDeleteRepositoryImpl[T, PT]) SoftDelete(ctx context.Context, entity *T, commit bool) error {
	PT(entity).SoftDelete().IsDeleted = true
	return r.Update(ctx, entity, commit)
}

// Restore clears is_deleted and stages the update.
func (r *softDeleteRepositoryImpl[T, PT]) Restore(ctx context.Context, entity *T, commit bool) error {
	PT(entity).SoftDelete().IsDeleted = false
	return r.Update(ctx, entity, commit)
}
