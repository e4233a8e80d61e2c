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
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ConnectionConfig.DBName = filepath.Join(t.TempDir(), "global")
	cfg.ConnectionConfig.ConnectRetries = 1
	cfg.DataInitConfig.AutoInitOnStartup = false
	return cfg
}

// breakMigrationTable leaves a schema_migrations table whose columns do not
// match, so reading applied migrations fails.
func breakMigrationTable(t *testing.T, cfg *Config) {
	t.Helper()
	manager := NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(context.Background()))
	_, err := manager.GetDB().ExecContext(context.Background(), "CREATE TABLE schema_migrations (x INTEGER)")
	require.NoError(t, err)
	require.NoError(t, manager.Disconnect())
}

func TestGlobalConnectionLifecycle(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	root := t.TempDir()
	cfg.DataInitConfig.Filepath = root
	cfg.DataInitConfig.Environment = "test"
	writeSQL(t, filepath.Join(root, "common", "001_notes.sql"), "CREATE TABLE notes (body TEXT);")
	writeSQL(t, filepath.Join(root, "environments", "test", "001_notes.sql"),
		"INSERT INTO notes (body) VALUES ('{{.ENVIRONMENT}}');")

	_, err := InitDatabaseWithOptions(ctx, cfg, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB() })

	require.NotNil(t, GetDB())
	assert.True(t, GetHealthStatus(ctx).Healthy)
	assert.Equal(t, 1, GetDatabaseStats().MaxOpenConns)

	require.NoError(t, RunMigrations(ctx))
	err = RollbackMigration(ctx, "19700101000000")
	assert.True(t, errors.Is(err, ErrMigrationNotFound))

	require.NoError(t, InitData(ctx))
	var bodies []string
	require.NoError(t, GetDB().NewRaw("SELECT body FROM notes").Scan(ctx, &bodies))
	assert.Equal(t, []string{"test"}, bodies)

	require.NoError(t, CloseDB())
	assert.Nil(t, GetDB())
	assert.Equal(t, &DBStats{}, GetDatabaseStats())
	assert.ErrorIs(t, RunMigrations(ctx), ErrNotInitialized)
	assert.ErrorIs(t, RollbackMigration(ctx, "1"), ErrNotInitialized)
	assert.ErrorIs(t, InitData(ctx), ErrNotInitialized)
}

func TestFactoryDisconnectsWhenMigrationsFail(t *testing.T) {
	cfg := testConfig(t)
	breakMigrationTable(t, cfg)

	factory := NewDatabaseFactory()
	manager, err := factory.CreateFromConfig(cfg)
	require.NoError(t, err)
	require.Error(t, factory.InitializeDatabase(context.Background(), true))
	assert.Nil(t, manager.GetDB())
	assert.False(t, manager.HealthCheck(context.Background()).Connected)
}

func TestInitDatabaseFailureLeavesNoGlobal(t *testing.T) {
	cfg := testConfig(t)
	breakMigrationTable(t, cfg)

	_, err := InitDatabaseWithOptions(context.Background(), cfg, true)
	require.Error(t, err)
	assert.Nil(t, GetDB())
}
