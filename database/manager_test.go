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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN(&ConnectionConfig{}))
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN(&ConnectionConfig{DBName: ":memory:"}))
	assert.Equal(t, "app.db", sqliteDSN(&ConnectionConfig{DBName: "app"}))
	assert.Equal(t, "data/app.db", sqliteDSN(&ConnectionConfig{DBName: "data/app.db"}))
	assert.Equal(t, "file:x?mode=memory", sqliteDSN(&ConnectionConfig{DBName: "app", DSN: "file:x?mode=memory"}))
}

func TestFactoryRejectsUnknownType(t *testing.T) {
	f := NewDatabaseFactory(nil)

	_, err := f.CreateFromConfig(nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.ConnectionConfig.Type = "oracle"
	_, err = f.CreateFromConfig(cfg)
	assert.ErrorContains(t, err, "unsupported database type: oracle")

	assert.ErrorContains(t, f.InitializeDatabase(t.Context()), "not created")
	assert.False(t, f.GetHealthStatus(t.Context()).Healthy)
	assert.Nil(t, f.GetDB())
}

func TestFactoryInitializeSqlite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConnectionConfig.Type = "sqlite"
	cfg.ConnectionConfig.DSN = "file:factory_test?mode=memory&cache=shared"
	cfg.ConnectionConfig.HealthCheckInterval = 0
	cfg.DataMigrateConfig.EnableMigrateOnStartup = true

	reg := newTestRegistry()
	f := NewDatabaseFactory(reg)
	f.SetLogger(NopLogger())
	_, err := f.CreateFromConfig(cfg)
	require.NoError(t, err)
	require.NoError(t, f.InitializeDatabase(t.Context()))
	t.Cleanup(func() { _ = f.Close() })

	assert.ErrorIs(t, reg.RegisterModel((*Migration)(nil), 1), ErrRegistrySealed)

	status := f.GetHealthStatus(t.Context())
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Equal(t, 100, f.GetStats().MaxOpenConns)

	s, err := f.NewSession()
	require.NoError(t, err)
	author := &testAuthor{Name: "Ursula K. Le Guin"}
	author.Slug = "ursula-k-le-guin"
	s.Add(author)
	require.NoError(t, s.Commit(t.Context()))

	count, err := f.GetDB().NewSelect().Model((*testAuthor)(nil)).Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, f.Close())
	assert.Nil(t, f.GetDB())
	assert.False(t, f.GetHealthStatus(t.Context()).Healthy)
}
