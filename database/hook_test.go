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

package database

import (
	"bytes"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

const unsetEchoEnv = "BEDROCK_TEST_ECHO_UNSET"

func TestQueryHookVerbose(t *testing.T) {
	var buf bytes.Buffer
	h := NewQueryHook(FromEnv(unsetEchoEnv), WithWriter(&buf))

	h.AfterQuery(t.Context(), &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	assert.Contains(t, buf.String(), "[BUN]")
	assert.Contains(t, buf.String(), "SELECT 1")
}

func TestQueryHookErrorsOnly(t *testing.T) {
	var buf bytes.Buffer
	h := NewQueryHook(FromEnv(unsetEchoEnv), WithVerbose(false), WithWriter(&buf))

	h.AfterQuery(t.Context(), &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	h.AfterQuery(t.Context(), &bun.QueryEvent{Query: "SELECT 2", StartTime: time.Now(), Err: sql.ErrNoRows})
	assert.Empty(t, buf.String())

	h.AfterQuery(t.Context(), &bun.QueryEvent{Query: "DELETE FROM books", StartTime: time.Now(), Err: errors.New("boom")})
	assert.Contains(t, buf.String(), "DELETE FROM books")
	assert.Contains(t, buf.String(), "boom")
}

func TestQueryHookEnvAndSilent(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("BEDROCK_TEST_ECHO", "0")
	h := NewQueryHook(FromEnv("BEDROCK_TEST_ECHO"), WithWriter(&buf))

	h.AfterQuery(t.Context(), &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	assert.Empty(t, buf.String())

	t.Setenv("BEDROCK_TEST_ECHO", "2")
	EnableBunSqlSilent(true)
	h.AfterQuery(t.Context(), &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	EnableBunSqlSilent(false)
	assert.Empty(t, buf.String())

	h.AfterQuery(t.Context(), &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	assert.Contains(t, buf.String(), "SELECT 1")
}

func TestSlowQueryHook(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("BEDROCK_SLOW_QUERY", "1")
	h := NewSlowQueryHook(50*time.Millisecond, NopLogger())
	h.SetWriter(&buf)

	h.AfterQuery(t.Context(), &bun.QueryEvent{Query: "SELECT fast", StartTime: time.Now()})
	assert.Empty(t, buf.String())

	h.AfterQuery(t.Context(), &bun.QueryEvent{Query: "SELECT slow", StartTime: time.Now().Add(-time.Second)})
	assert.Contains(t, buf.String(), "[BUN_SLOW]")
	assert.Contains(t, buf.String(), "SELECT slow")
}

func TestMetricsHook(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewMetricsHook(reg)

	h.AfterQuery(t.Context(), &bun.QueryEvent{Query: "SELECT * FROM books", StartTime: time.Now()})
	h.AfterQuery(t.Context(), &bun.QueryEvent{Query: "SELECT * FROM books", StartTime: time.Now(), Err: sql.ErrNoRows})
	h.AfterQuery(t.Context(), &bun.QueryEvent{Query: "INSERT INTO books", StartTime: time.Now(), Err: errors.New("boom")})

	assert.Equal(t, 2.0, testutil.ToFloat64(h.queries.WithLabelValues("select", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.queries.WithLabelValues("insert", StatusError)))
	assert.Equal(t, 2, testutil.CollectAndCount(h.duration))

	assert.Same(t, NewMetricsHook(nil), NewMetricsHook(nil))
}
