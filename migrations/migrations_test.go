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

package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/jungle/database"
	"github.com/tomoncle/jungle/models"
	"github.com/uptrace/bun"
)

func setupMigrator(t *testing.T) (*database.MigrationManager, *bun.DB) {
	t.Helper()
	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.DBName = filepath.Join(t.TempDir(), "jungle")
	cfg.ConnectionConfig.ConnectRetries = 1

	manager := database.NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { _ = manager.Disconnect() })

	mm, err := manager.Migrator()
	require.NoError(t, err)
	return mm, manager.GetDB()
}

func columns(t *testing.T, db bun.IDB, table string) []string {
	t.Helper()
	names, err := database.ColumnNames(context.Background(), db, table)
	require.NoError(t, err)
	return names
}

func tableExists(t *testing.T, db bun.IDB, table string) bool {
	t.Helper()
	ok, err := database.TableExists(context.Background(), db, table)
	require.NoError(t, err)
	return ok
}

func TestAllIsOrderedAndRegistered(t *testing.T) {
	items := All()
	require.Len(t, items, 3)
	for i := 1; i < len(items); i++ {
		assert.Less(t, items[i-1].Version, items[i].Version)
	}

	registered := make(map[string]bool)
	for _, m := range database.RegisteredMigrations() {
		registered[m.Version] = true
	}
	for _, m := range items {
		assert.True(t, registered[m.Version], m.Name)
		assert.NotNil(t, m.Down, m.Name)
	}
}

func TestRunMigrationsCreatesTables(t *testing.T) {
	mm, db := setupMigrator(t)
	ctx := context.Background()

	require.NoError(t, mm.RunMigrations(ctx))

	assert.Equal(t, []string{"id", "location", "name", "rainfall"}, columns(t, db, "jungles"))
	assert.Equal(t, []string{"id", "jungle_id", "name"}, columns(t, db, "animals"))

	applied, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 3)
	assert.Equal(t, CreateJungles, applied[0].Version)
	assert.Equal(t, RemoveSizeFromJungles, applied[2].Version)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	mm, db := setupMigrator(t)
	ctx := context.Background()

	require.NoError(t, mm.RunMigrations(ctx))
	require.NoError(t, mm.RunMigrations(ctx))

	applied, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 3)
	assert.NotContains(t, columns(t, db, "jungles"), "size")
}

func TestRollbackAnimalsKeepsJungles(t *testing.T) {
	mm, db := setupMigrator(t)
	ctx := context.Background()
	require.NoError(t, mm.RunMigrations(ctx))

	_, err := db.NewInsert().Model(&models.Jungle{Name: "Amazon", Location: "Brazil", Rainfall: 2300}).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, mm.RollbackMigration(ctx, CreateAnimals))

	assert.False(t, tableExists(t, db, "animals"))
	assert.True(t, tableExists(t, db, "jungles"))
	assert.Equal(t, []string{"id", "location", "name", "rainfall"}, columns(t, db, "jungles"))

	count, err := db.NewSelect().Model((*models.Jungle)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	statuses, err := mm.Status(ctx)
	require.NoError(t, err)
	for _, s := range statuses {
		assert.Equal(t, s.Version != CreateAnimals, s.Applied, s.Name)
	}

	// re-applying only brings back the reverted migration
	require.NoError(t, mm.RunMigrations(ctx))
	assert.True(t, tableExists(t, db, "animals"))
}

func TestRollbackLastStepRestoresSize(t *testing.T) {
	mm, db := setupMigrator(t)
	ctx := context.Background()
	require.NoError(t, mm.RunMigrations(ctx))

	require.NoError(t, mm.Rollback(ctx, 1))
	assert.Equal(t, []string{"id", "location", "name", "rainfall", "size"}, columns(t, db, "jungles"))

	pending, err := mm.PendingMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, RemoveSizeFromJungles, pending[0].Version)
}

func TestRollbackEverything(t *testing.T) {
	mm, db := setupMigrator(t)
	ctx := context.Background()
	require.NoError(t, mm.RunMigrations(ctx))

	require.NoError(t, mm.Rollback(ctx, 10))

	assert.False(t, tableExists(t, db, "jungles"))
	assert.False(t, tableExists(t, db, "animals"))
	applied, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestRollbackErrors(t *testing.T) {
	mm, _ := setupMigrator(t)
	ctx := context.Background()

	assert.ErrorIs(t, mm.RollbackMigration(ctx, CreateAnimals), database.ErrMigrationNotApplied)
	assert.ErrorIs(t, mm.RollbackMigration(ctx, "19700101000000"), database.ErrMigrationNotFound)
	assert.Error(t, mm.Rollback(ctx, 0))
}

func TestAnimalWithDanglingJungleID(t *testing.T) {
	mm, db := setupMigrator(t)
	ctx := context.Background()
	require.NoError(t, mm.RunMigrations(ctx))

	animal := &models.Animal{Name: "Jaguar", JungleID: 999}
	_, err := db.NewInsert().Model(animal).Exec(ctx)
	require.NoError(t, err)
	assert.NotZero(t, animal.ID)
}
