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

// Package models holds the bun models for jungles and their animals.
package models

import (
	"github.com/tomoncle/jungle/database"
	"github.com/uptrace/bun"
)

// Jungle maps the jungles table. Animals is loaded on demand through the
// "Animals" relation.
type Jungle struct {
	bun.BaseModel `bun:"table:jungles,alias:j"`

	ID       int64     `bun:"id,pk,autoincrement" json:"id"`
	Name     string    `bun:"name,nullzero" json:"name"`
	Location string    `bun:"location,nullzero" json:"location"`
	Rainfall int       `bun:"rainfall" json:"rainfall"`
	Animals  []*Animal `bun:"rel:has-many,join:id=jungle_id" json:"animals,omitempty"`
}

// Animal maps the animals table. JungleID is not a foreign key; it may
// reference a jungle that does not exist.
type Animal struct {
	bun.BaseModel `bun:"table:animals,alias:a"`

	ID       int64   `bun:"id,pk,autoincrement" json:"id"`
	Name     string  `bun:"name,nullzero" json:"name"`
	JungleID int64   `bun:"jungle_id" json:"jungle_id"`
	Jungle   *Jungle `bun:"rel:belongs-to,join:jungle_id=id" json:"jungle,omitempty"`
}

func init() {
	database.RegisteredModel(database.NewModelAdapter((*Jungle)(nil), 1))
	database.RegisteredModel(database.NewModelAdapter((*Animal)(nil), 2))
}
