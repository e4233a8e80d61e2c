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

// Package migrations registers the versioned schema changes for jungles and
// animals. Importing it for side effects fills the database migration
// registry.
package migrations

import (
	"context"

	"github.com/tomoncle/jungle/database"
	"github.com/uptrace/bun"
)

const (
	CreateJungles         = "20140926152129"
	CreateAnimals         = "20140926152502"
	RemoveSizeFromJungles = "20140926153815"
)

// Table layouts as of the migration that created them. They must not follow
// later changes to the models package.
type jungleV1 struct {
	bun.BaseModel `bun:"table:jungles"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Size     string `bun:"size"`
	Name     string `bun:"name"`
	Location string `bun:"location"`
	Rainfall int    `bun:"rainfall"`
}

type animalV1 struct {
	bun.BaseModel `bun:"table:animals"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Name     string `bun:"name"`
	JungleID int64  `bun:"jungle_id"`
}

// All returns the migrations in version order.
func All() []database.MigrationItem {
	return []database.MigrationItem{
		{
			Version:     CreateJungles,
			Name:        "create_jungles",
			Description: "create the jungles table",
			Up:          createTable((*jungleV1)(nil)),
			Down:        dropTable((*jungleV1)(nil)),
		},
		{
			Version:     CreateAnimals,
			Name:        "create_animals",
			Description: "create the animals table",
			Up:          createTable((*animalV1)(nil)),
			Down:        dropTable((*animalV1)(nil)),
		},
		{
			Version:     RemoveSizeFromJungles,
			Name:        "remove_size_from_jungles",
			Description: "drop the size column from jungles",
			Up:          removeSizeFromJungles,
			Down:        addSizeToJungles,
		},
	}
}

func init() {
	database.RegisterMigration(All()...)
}

func createTable(model interface{}) database.MigrationFunc {
	return func(ctx context.Context, db bun.IDB) error {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		return err
	}
}

func dropTable(model interface{}) database.MigrationFunc {
	return func(ctx context.Context, db bun.IDB) error {
		_, err := db.NewDropTable().Model(model).IfExists().Exec(ctx)
		return err
	}
}

func removeSizeFromJungles(ctx context.Context, db bun.IDB) error {
	_, err := db.NewDropColumn().Model((*jungleV1)(nil)).Column("size").Exec(ctx)
	return err
}

func addSizeToJungles(ctx context.Context, db bun.IDB) error {
	_, err := db.NewAddColumn().Model((*jungleV1)(nil)).ColumnExpr("size VARCHAR(255)").Exec(ctx)
	return err
}
