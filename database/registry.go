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
	"fmt"
	"sort"
	"sync"
)

var (
	defaultRegistry          = newModelRegistry()
	defaultMigrationRegistry = NewMigrationRegistry()
)

// SQLModel is a bun model registered with the connection. Priority controls
// registration order, lower values first.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// ModelRegistry stores SQL models and exposes them in a deterministic order.
type ModelRegistry interface {
	Register(model SQLModel)
	Models() []SQLModel
}

type modelRegistry struct {
	models []SQLModel
	mutex  sync.RWMutex
}

func newModelRegistry() ModelRegistry {
	return &modelRegistry{
		models: make([]SQLModel, 0),
	}
}

func (r *modelRegistry) Register(model SQLModel) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.models = append(r.models, model)
}

func (r *modelRegistry) Models() []SQLModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]SQLModel, len(r.models))
	copy(result, r.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

type ModelAdapter struct {
	instance interface{}
	priority int
}

// NewModelAdapter wraps a struct instance and priority into an SQLModel.
func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return &ModelAdapter{
		instance: instance,
		priority: priority,
	}
}

func (a *ModelAdapter) Instance() interface{} {
	return a.instance
}

func (a *ModelAdapter) Priority() int {
	return a.priority
}

// GetRegisteredModels returns all models registered in the default registry
// sorted by ascending priority.
func GetRegisteredModels() []SQLModel {
	return defaultRegistry.Models()
}

// RegisteredModel adds a model to the default registry.
func RegisteredModel(model SQLModel) {
	defaultRegistry.Register(model)
}

func RegisteredModelInstances() []interface{} {
	models := GetRegisteredModels()
	modelInstances := make([]interface{}, len(models))
	for i, model := range models {
		modelInstances[i] = model.Instance()
	}
	return modelInstances
}

// MigrationRegistry holds migrations keyed by version.
type MigrationRegistry struct {
	mu    sync.RWMutex
	items map[string]MigrationItem
}

func NewMigrationRegistry() *MigrationRegistry {
	return &MigrationRegistry{items: make(map[string]MigrationItem)}
}

// Register adds migrations. Versions must be unique and every item needs an
// Up step.
func (r *MigrationRegistry) Register(items ...MigrationItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		if item.Version == "" || item.Up == nil {
			return fmt.Errorf("invalid migration %q: version and up step are required", item.Name)
		}
		if _, ok := r.items[item.Version]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateMigration, item.Version)
		}
		r.items[item.Version] = item
	}
	return nil
}

// Migrations returns the registered migrations in ascending version order.
func (r *MigrationRegistry) Migrations() []MigrationItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]MigrationItem, 0, len(r.items))
	for _, item := range r.items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Version < result[j].Version
	})
	return result
}

// RegisterMigration adds migrations to the default registry and panics on an
// invalid or duplicate version. Meant to be called from init.
func RegisterMigration(items ...MigrationItem) {
	if err := defaultMigrationRegistry.Register(items...); err != nil {
		panic(err)
	}
}

// RegisteredMigrations returns the default registry's migrations in order.
func RegisteredMigrations() []MigrationItem {
	return defaultMigrationRegistry.Migrations()
}
