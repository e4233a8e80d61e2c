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

package jungle_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/jungle"
	"github.com/tomoncle/jungle/database"
	_ "github.com/tomoncle/jungle/migrations"
	"github.com/tomoncle/jungle/models"
	"github.com/tomoncle/jungle/types"
	"github.com/uptrace/bun"
)

func setupDB(t *testing.T) *bun.DB {
	t.Helper()
	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.DBName = filepath.Join(t.TempDir(), "jungle")
	cfg.ConnectionConfig.ConnectRetries = 1
	manager := database.NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { _ = manager.Disconnect() })
	require.NoError(t, manager.RunMigrations(context.Background()))
	return manager.GetDB()
}

// insertJungles stores jungles and then their animals, pointing each animal
// at its jungle.
func insertJungles(t *testing.T, db bun.IDB, jungles ...*models.Jungle) {
	t.Helper()
	ctx := context.Background()
	_, err := db.NewInsert().Model(&jungles).Exec(ctx)
	require.NoError(t, err)

	var animals []*models.Animal
	for _, j := range jungles {
		for _, a := range j.Animals {
			a.JungleID = j.ID
			animals = append(animals, a)
		}
	}
	if len(animals) > 0 {
		_, err = db.NewInsert().Model(&animals).Exec(ctx)
		require.NoError(t, err)
	}
}

func TestCatalogGetJungle(t *testing.T) {
	db := setupDB(t)
	catalog := jungle.NewCatalogWithDB(db)
	ctx := context.Background()

	amazon := &models.Jungle{
		Name:     "Amazon",
		Location: "South America",
		Rainfall: 2300,
		Animals:  []*models.Animal{{Name: "Jaguar"}, {Name: "Sloth"}},
	}
	insertJungles(t, db, amazon)
	require.NotZero(t, amazon.ID)

	got, err := catalog.Jungle(ctx, amazon.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amazon", got.Name)
	assert.Equal(t, 2300, got.Rainfall)
	require.Len(t, got.Animals, 2)
	for _, a := range got.Animals {
		assert.Equal(t, amazon.ID, a.JungleID)
	}

	_, err = catalog.Jungle(ctx, 4242)
	assert.True(t, database.IsNoRows(err))
}

func TestCatalogPaging(t *testing.T) {
	db := setupDB(t)
	catalog := jungle.NewCatalogWithDB(db)
	ctx := context.Background()

	insertJungles(t, db,
		&models.Jungle{Name: "Amazon"},
		&models.Jungle{Name: "Congo"},
		&models.Jungle{Name: "Daintree"},
	)

	page, err := catalog.Jungles(ctx, types.NewDefaultPageRequest(2, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Daintree", page.Items[0].Name)

	far, err := catalog.Jungles(ctx, types.NewDefaultPageRequest(types.MaxPage, types.MaxPageSize))
	require.NoError(t, err)
	assert.Equal(t, 3, far.Total)
	assert.Empty(t, far.Items)

	empty, err := catalog.Animals(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.Empty(t, empty.Items)
}

func TestCatalogAnimalsFilteredByJungle(t *testing.T) {
	db := setupDB(t)
	catalog := jungle.NewCatalogWithDB(db)
	ctx := context.Background()

	a := &models.Jungle{Name: "A", Animals: []*models.Animal{{Name: "Ant"}}}
	b := &models.Jungle{Name: "B", Animals: []*models.Animal{{Name: "Bee"}, {Name: "Bat"}}}
	insertJungles(t, db, a, b)

	req := types.NewPageRequestWithFilter(1, 10, types.NewQueryFilter("jungle_id = ?", b.ID))
	page, err := catalog.Animals(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "Bee", page.Items[0].Name)
}

func TestServiceWithDB(t *testing.T) {
	db := setupDB(t)
	svc := jungle.NewServiceWithDB[models.Animal](db)
	ctx := context.Background()

	orphan := []*models.Animal{{Name: "Orphan", JungleID: 999}}
	_, err := db.NewInsert().Model(&orphan).Exec(ctx)
	require.NoError(t, err)

	n, err := svc.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(999), all[0].JungleID)

	list, err := svc.List(ctx, types.NewQueryFilter("name = ?", "Orphan"))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
