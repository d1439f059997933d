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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnHelpers(t *testing.T) {
	dir := t.TempDir()
	seeds := filepath.Join(dir, "sql")
	require.NoError(t, os.MkdirAll(filepath.Join(seeds, "environments", "dev"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(seeds, "environments", "dev", "001_authors.sql"), []byte(
		"INSERT INTO authors (id, slug, name, created_at) VALUES ('5b1f7e1e-0000-4000-8000-000000000001', 'ursula', 'Ursula', '2024-01-01 00:00:00+00:00');\n",
	), 0o644))

	cfg := DefaultConfig()
	cfg.ConnectionConfig.Type = "sqlite"
	cfg.ConnectionConfig.DSN = filepath.Join(dir, "bedrock.db")
	cfg.ConnectionConfig.HealthCheckInterval = 0
	cfg.DataInitConfig.Filepath = seeds
	cfg.DataInitConfig.Environment = "dev"

	require.NoError(t, RunMigrations(t.Context(), cfg, newTestRegistry()))
	require.NoError(t, InitData(t.Context(), cfg, newTestRegistry()))

	factory, err := InitDB(t.Context(), cfg, newTestRegistry())
	require.NoError(t, err)
	defer func() { _ = factory.Close() }()

	n, err := factory.GetDB().NewSelect().Model((*testAuthor)(nil)).Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = InitDB(t.Context(), nil, newTestRegistry())
	assert.Error(t, err)
	assert.Error(t, RunMigrations(t.Context(), nil, newTestRegistry()))
}
