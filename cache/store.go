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
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Store is a byte cache. Get reports a miss with ok == false and a nil
// error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Encode serializes a cached value with msgpack.
func Encode(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode deserializes a value written by Encode.
func Decode(b []byte, v interface{}) error {
	return msgpack.Unmarshal(b, v)
}

// GetValue reads key and decodes it into v.
func GetValue(ctx context.Context, s Store, key string, v interface{}) (bool, error) {
	b, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := Decode(b, v); err != nil {
		return false, err
	}
	return true, nil
}

// SetValue encodes v and writes it under key.
func SetValue(ctx context.Context, s Store, key string, v interface{}, ttl time.Duration) error {
	b, err := Encode(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, b, ttl)
}
