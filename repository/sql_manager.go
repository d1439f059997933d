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
	"github.com/tomoncle/bedrock/types"
	"github.com/uptrace/bun"
)

// SQLManager runs one-off statements on a session and returns rows as
// column maps.
type SQLManager struct {
	session *database.Session
	options
}

func NewSQLManager(session *database.Session, opts ...Option) *SQLManager {
	return &SQLManager{session: session, options: newOptions(opts)}
}

// Query runs a raw statement and returns every row.
func (m *SQLManager) Query(ctx context.Context, query string, args ...interface{}) ([]types.JsonObject, error) {
	if err := m.flush(ctx, "query"); err != nil {
		return nil, err
	}
	var rows []map[string]interface{}
	if err := m.session.IDB().NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		return nil, translate(m.errs, "query", "", err)
	}
	return toObjects(rows), nil
}

// QueryOne runs a raw statement and returns its first row, or nil.
func (m *SQLManager) QueryOne(ctx context.Context, query string, args ...interface{}) (types.JsonObject, error) {
	rows, err := m.Query(ctx, query, args...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Select runs a built select and returns every row as a column map.
func (m *SQLManager) Select(ctx context.Context, q *bun.SelectQuery) ([]types.JsonObject, error) {
	if err := m.flush(ctx, "select"); err != nil {
		return nil, err
	}
	var rows []map[string]interface{}
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, translate(m.errs, "select", "", err)
	}
	return toObjects(rows), nil
}

// Count counts the rows q would return, ignoring its ordering and window.
func (m *SQLManager) Count(ctx context.Context, q *bun.SelectQuery) (int, error) {
	if err := m.flush(ctx, "count"); err != nil {
		return 0, err
	}
	n, err := q.Count(ctx)
	if err != nil {
		return 0, translate(m.errs, "count", "", err)
	}
	return n, nil
}

// Exec runs a statement that returns no rows and reports the rows affected.
func (m *SQLManager) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if err := m.flush(ctx, "exec"); err != nil {
		return 0, err
	}
	res, err := m.session.IDB().NewRaw(query, args...).Exec(ctx)
	if err != nil {
		return 0, translate(m.errs, "exec", "", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, translate(m.errs, "exec", "", err)
	}
	return n, nil
}

func (m *SQLManager) flush(ctx context.Context, op string) error {
	return translate(m.errs, op, "", m.session.Flush(ctx))
}

func toObjects(rows []map[string]interface{}) []types.JsonObject {
	result := make([]types.JsonObject, len(rows))
	for i, row := range rows {
		result[i] = row
	}
	return result
}
