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

package command

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/bedrock/database"
	"github.com/tomoncle/bedrock/model"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type apiToken struct {
	bun.BaseModel `bun:"table:api_tokens,alias:t"`
	model.IntIDFields
	model.ExpiryFields

	Value string `bun:"value,notnull"`
}

type cliFixture struct {
	t      *testing.T
	dir    string
	dbPath string
	config string
	out    bytes.Buffer
}

func newCLIFixture(t *testing.T, dbType string) *cliFixture {
	f := &cliFixture{t: t, dir: t.TempDir()}
	f.dbPath = filepath.Join(f.dir, "cli.db")
	f.config = filepath.Join(f.dir, "bedrock.yaml")
	require.NoError(t, os.WriteFile(f.config, []byte(fmt.Sprintf(`
app:
  name: cli-test
logger:
  level: error
database:
  connection:
    type: %s
    dsn: %q
    health_check_interval: 0s
`, dbType, f.dbPath)), 0o644))
	return f
}

func (f *cliFixture) run(args ...string) error {
	app := NewApp("bedrock", "test", database.NewRegistry(database.NewModelAdapter((*apiToken)(nil), 10)))
	app.Writer = &f.out
	app.ErrWriter = &f.out
	f.out.Reset()
	return app.Run(append([]string{"bedrock", "-c", f.config}, args...))
}

func (f *cliFixture) insertTokens(tokens ...*apiToken) {
	sqldb, err := sql.Open(sqliteshim.ShimName, f.dbPath)
	require.NoError(f.t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer func() { _ = db.Close() }()
	_, err = db.NewInsert().Model(&tokens).Exec(f.t.Context())
	require.NoError(f.t, err)
}

func TestHealth(t *testing.T) {
	f := newCLIFixture(t, "sqlite")
	require.NoError(t, f.run("health"))
	assert.Contains(t, f.out.String(), `"healthy": true`)
}

func TestUnsupportedDatabase(t *testing.T) {
	f := newCLIFixture(t, "oracle")
	err := f.run("health")
	assert.ErrorContains(t, err, "unsupported database type: oracle")
}

func TestMissingConfigFile(t *testing.T) {
	app := NewApp("bedrock", "test", nil)
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"bedrock", "-c", filepath.Join(t.TempDir(), "missing.yaml"), "health"})
	assert.ErrorContains(t, err, "could not load configuration")
}

func TestMigrate(t *testing.T) {
	f := newCLIFixture(t, "sqlite")

	require.NoError(t, f.run("migrate"))
	assert.Equal(t, "migrations applied\n", f.out.String())

	require.NoError(t, f.run("migrate", "--list"))
	assert.Regexp(t, `^001\t\S+`, f.out.String())

	require.NoError(t, f.run("migrate", "--rollback", "001"))
	assert.Equal(t, "rolled back 001\n", f.out.String())

	require.NoError(t, f.run("migrate", "--list"))
	assert.Empty(t, f.out.String())

	err := f.run("migrate", "--rollback", "042")
	assert.ErrorContains(t, err, "could not roll back 042")
}

func TestSeedAndSweep(t *testing.T) {
	f := newCLIFixture(t, "sqlite")
	require.NoError(t, f.run("migrate"))

	seeds := filepath.Join(f.dir, "sql")
	require.NoError(t, os.MkdirAll(filepath.Join(seeds, "common"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(seeds, "common", "001_tokens.sql"),
		[]byte("INSERT INTO api_tokens (value, expires_at) VALUES ('seeded', '2000-01-01 00:00:00+00:00');\n"), 0o644))

	require.NoError(t, f.run("seed", "-e", "test", "-p", seeds))
	assert.Contains(t, f.out.String(), "001_tokens.sql\tok\t1 rows")

	now := time.Now().UTC()
	f.insertTokens(
		&apiToken{Value: "stale", ExpiryFields: model.ExpiryFields{ExpiresAt: now.Add(-time.Hour)}},
		&apiToken{Value: "live", ExpiryFields: model.ExpiryFields{ExpiresAt: now.Add(time.Hour)}},
	)

	require.NoError(t, f.run("sweep"))
	assert.Equal(t, "api_tokens\t2\n", f.out.String())

	require.NoError(t, f.run("sweep"))
	assert.Equal(t, "api_tokens\t0\n", f.out.String())
}
