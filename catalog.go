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

// Package jungle serves jungles and the animals living in them on top of
// generic bun services.
package jungle

import (
	"context"

	"github.com/tomoncle/jungle/models"
	"github.com/tomoncle/jungle/types"
	"github.com/uptrace/bun"
)

// Catalog is the read side of jungles and animals used by the HTTP
// handlers.
type Catalog struct {
	jungles Service[models.Jungle]
	animals Service[models.Animal]
}

// NewCatalog returns a Catalog over the global database connection.
func NewCatalog() *Catalog {
	return &Catalog{
		jungles: NewService[models.Jungle](),
		animals: NewService[models.Animal](),
	}
}

// NewCatalogWithDB returns a Catalog bound to db.
func NewCatalogWithDB(db bun.IDB) *Catalog {
	return &Catalog{
		jungles: NewServiceWithDB[models.Jungle](db),
		animals: NewServiceWithDB[models.Animal](db),
	}
}

func (c *Catalog) Jungles(ctx context.Context, req *types.PageRequest) (*types.Pagination[models.Jungle], error) {
	return c.jungles.Page(ctx, req)
}

// Jungle returns one jungle with its animals. A missing id yields
// sql.ErrNoRows.
func (c *Catalog) Jungle(ctx context.Context, id int64) (*models.Jungle, error) {
	return c.jungles.Get(ctx, id, "Animals")
}

// Animals pages through animals. The request filter may restrict jungle_id.
func (c *Catalog) Animals(ctx context.Context, req *types.PageRequest) (*types.Pagination[models.Animal], error) {
	return c.animals.Page(ctx, req)
}
