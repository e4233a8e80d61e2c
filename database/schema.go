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
	"database/sql"
	"fmt"
	"sort"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// ColumnInfo is a column as reported by the database catalog.
type ColumnInfo struct {
	Name    string
	Type    string
	NotNull bool
	Default string
}

// TableExists reports whether table is present in the current schema.
func TableExists(ctx context.Context, db bun.IDB, table string) (bool, error) {
	var query string
	switch db.Dialect().Name() {
	case dialect.PG:
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?`
	case dialect.MySQL:
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`
	default:
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	}
	var n int
	if err := db.NewRaw(query, table).Scan(ctx, &n); err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", table, err)
	}
	return n > 0, nil
}

// ListColumns returns the columns of table sorted by name. A missing table
// yields an empty slice.
func ListColumns(ctx context.Context, db bun.IDB, table string) ([]ColumnInfo, error) {
	var (
		rows *sql.Rows
		err  error
	)
	name := db.Dialect().Name()
	switch name {
	case dialect.PG:
		rows, err = db.QueryContext(ctx, `SELECT column_name, data_type, is_nullable, column_default FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ?`, table)
	case dialect.MySQL:
		rows, err = db.QueryContext(ctx, `SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`, table)
	default:
		rows, err = db.QueryContext(ctx, `SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`, table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	cols := make([]ColumnInfo, 0)
	for rows.Next() {
		var colName, typ, nullable string
		var def sql.NullString
		switch name {
		case dialect.PG, dialect.MySQL:
			if err := rows.Scan(&colName, &typ, &nullable, &def); err != nil {
				return nil, err
			}
		default:
			var cid, notnull, pk int
			if err := rows.Scan(&cid, &colName, &typ, &notnull, &def, &pk); err != nil {
				return nil, err
			}
			nullable = map[bool]string{true: "NO", false: "YES"}[notnull == 1]
		}
		cols = append(cols, ColumnInfo{
			Name:    colName,
			Type:    typ,
			NotNull: nullable == "NO",
			Default: def.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	return cols, nil
}

// ColumnNames is ListColumns reduced to the sorted column names.
func ColumnNames(ctx context.Context, db bun.IDB, table string) ([]string, error) {
	cols, err := ListColumns(ctx, db, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names, nil
}
