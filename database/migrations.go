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
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// MigrationManager applies and reverts versioned schema migrations and keeps
// track of them in the schema_migrations table.
type MigrationManager struct {
	db       *bun.DB
	logger   Logger
	registry *MigrationRegistry
	verbose  bool
}

// Migration is an applied migration record stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Version     string    `bun:"version,pk" json:"version"`
	Name        string    `bun:"name" json:"name"`
	Description string    `bun:"description" json:"description"`
	AppliedAt   time.Time `bun:"applied_at,notnull" json:"applied_at"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version with up/down functions.
// Versions sort lexically, so use fixed-width timestamps.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// MigrationStatus reports whether a registered migration has been applied.
type MigrationStatus struct {
	Version   string    `json:"version"`
	Name      string    `json:"name"`
	Applied   bool      `json:"applied"`
	AppliedAt time.Time `json:"applied_at,omitempty"`
}

// NewMigrationManager constructs a MigrationManager over the given registry.
// A nil registry means the package default filled by RegisterMigration.
func NewMigrationManager(db *bun.DB, logger Logger, registry *MigrationRegistry) *MigrationManager {
	if registry == nil {
		registry = defaultMigrationRegistry
	}
	return &MigrationManager{
		db:       db,
		logger:   logger,
		registry: registry,
	}
}

// SetVerbose keeps the SQL query hooks printing while migrations run.
func (mm *MigrationManager) SetVerbose(v bool) {
	mm.verbose = v
}

// RunMigrations creates the migration tracking table if needed and applies
// every pending migration in ascending version order.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return ErrNotInitialized
	}
	if !mm.verbose {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
	}

	applied, err := mm.appliedSet(ctx)
	if err != nil {
		return err
	}

	count := 0
	for _, migration := range mm.registry.Migrations() {
		if _, ok := applied[migration.Version]; ok {
			continue
		}
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
		count++
	}

	mm.info("Database migrations completed!", "applied", count)
	return nil
}

// RollbackMigration reverts one applied migration: its down step runs and
// its tracking row is removed in the same transaction.
func (mm *MigrationManager) RollbackMigration(ctx context.Context, version string) error {
	if mm.db == nil {
		return ErrNotInitialized
	}
	migration, ok := mm.find(version)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMigrationNotFound, version)
	}
	applied, err := mm.appliedSet(ctx)
	if err != nil {
		return err
	}
	if _, ok := applied[version]; !ok {
		return fmt.Errorf("%w: %s", ErrMigrationNotApplied, version)
	}
	if migration.Down == nil {
		return fmt.Errorf("%w: %s", ErrIrreversibleMigration, version)
	}
	if !mm.verbose {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Down(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*Migration)(nil)).
			Where("version = ?", version).
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to roll back migration %s: %w", version, err)
	}
	mm.info("Migration rolled back", "version", migration.Version, "name", migration.Name)
	return nil
}

// Rollback reverts the last steps applied migrations, newest first.
func (mm *MigrationManager) Rollback(ctx context.Context, steps int) error {
	if steps < 1 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	applied, err := mm.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	for i := len(applied) - 1; i >= 0 && steps > 0; i-- {
		if err := mm.RollbackMigration(ctx, applied[i].Version); err != nil {
			return err
		}
		steps--
	}
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	if mm.db == nil {
		return nil, ErrNotInitialized
	}
	if err := mm.createMigrationTable(ctx); err != nil {
		return nil, err
	}
	migrations := make([]Migration, 0)
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}

// Status lists every registered migration and whether it is applied.
func (mm *MigrationManager) Status(ctx context.Context) ([]MigrationStatus, error) {
	applied, err := mm.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	appliedAt := make(map[string]time.Time, len(applied))
	for _, m := range applied {
		appliedAt[m.Version] = m.AppliedAt
	}

	registered := mm.registry.Migrations()
	statuses := make([]MigrationStatus, 0, len(registered))
	for _, m := range registered {
		at, ok := appliedAt[m.Version]
		statuses = append(statuses, MigrationStatus{
			Version:   m.Version,
			Name:      m.Name,
			Applied:   ok,
			AppliedAt: at,
		})
	}
	return statuses, nil
}

// PendingMigrations returns registered migrations not applied yet.
func (mm *MigrationManager) PendingMigrations(ctx context.Context) ([]MigrationItem, error) {
	applied, err := mm.appliedSet(ctx)
	if err != nil {
		return nil, err
	}
	var pending []MigrationItem
	for _, m := range mm.registry.Migrations() {
		if _, ok := applied[m.Version]; !ok {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

func (mm *MigrationManager) createMigrationTable(ctx context.Context) error {
	_, err := mm.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (mm *MigrationManager) appliedSet(ctx context.Context) (map[string]struct{}, error) {
	applied, err := mm.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(applied))
	for _, m := range applied {
		set[m.Version] = struct{}{}
	}
	return set, nil
}

func (mm *MigrationManager) find(version string) (MigrationItem, bool) {
	for _, m := range mm.registry.Migrations() {
		if m.Version == version {
			return m, true
		}
	}
	return MigrationItem{}, false
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	err := mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().
			Model(&Migration{
				Version:     migration.Version,
				Name:        migration.Name,
				Description: migration.Description,
				AppliedAt:   time.Now(),
			}).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	mm.info("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	return nil
}

func (mm *MigrationManager) info(msg string, fields ...interface{}) {
	if mm.logger != nil {
		mm.logger.Info(msg, fields...)
	}
}
