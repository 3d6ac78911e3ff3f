package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"db-bridge/internal/dialect"
)

// ReadTableSchema fetches the column layout and primary key of one table
// and derives its CREATE TABLE statement.
func ReadTableSchema(ctx context.Context, db *sql.DB, d dialect.Dialect, schema, table string) (*TableSchema, error) {
	rows, err := db.QueryContext(ctx, d.ColumnsQuery(), schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var name, dataType, isNullable, columnDefault, columnKey sql.NullString
		var position int

		if err := rows.Scan(&name, &dataType, &isNullable, &columnDefault, &position, &columnKey); err != nil {
			return nil, fmt.Errorf("failed to scan column (table: %s.%s): %w", schema, table, err)
		}
		if !name.Valid {
			continue
		}

		nullable := isNullable.String == "YES" || isNullable.String == "Y"
		columns = append(columns, ColumnInfo{
			Name:            name.String,
			DataType:        d.NormalizeType(dataType.String),
			IsNullable:      nullable,
			Default:         strings.TrimSpace(columnDefault.String),
			IsPrimaryKey:    strings.Contains(columnKey.String, "PRI"),
			OrdinalPosition: position,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found", schema, table)
	}

	var primaryKeys []string
	for _, c := range columns {
		if c.IsPrimaryKey {
			primaryKeys = append(primaryKeys, c.Name)
		}
	}

	return &TableSchema{
		Schema:            schema,
		Table:             table,
		Columns:           columns,
		PrimaryKeyColumns: primaryKeys,
		CreateStatement:   CreateTableStatement(d, schema, table, columns, primaryKeys, false),
	}, nil
}

// RowCount returns the exact row count of a table.
func RowCount(ctx context.Context, db *sql.DB, d dialect.Dialect, schema, table string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QualifyTable(schema, table))

	var count int64
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

// ListTables returns every base table visible to the connection, system
// schemas excluded.
func ListTables(ctx context.Context, db *sql.DB, d dialect.Dialect) ([]TableRef, error) {
	rows, err := db.QueryContext(ctx, d.TablesQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []TableRef
	for rows.Next() {
		var t TableRef
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// AllDependencies harvests the database's foreign-key edges as
// child -> set of referenced parents. Self-references are dropped and
// duplicate edges (multi-column or repeated constraints) collapse to one.
func AllDependencies(ctx context.Context, db *sql.DB, d dialect.Dialect) ([]TableDependency, error) {
	rows, err := db.QueryContext(ctx, d.ForeignKeysQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to get dependencies: %w", err)
	}
	defer rows.Close()

	edges := make(map[TableRef]map[TableRef]bool)
	for rows.Next() {
		var child, parent TableRef
		if err := rows.Scan(&child.Schema, &child.Name, &parent.Schema, &parent.Name); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		if child == parent {
			continue
		}
		if edges[child] == nil {
			edges[child] = make(map[TableRef]bool)
		}
		edges[child][parent] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}

	deps := make([]TableDependency, 0, len(edges))
	for child, parents := range edges {
		dep := TableDependency{Table: child}
		for p := range parents {
			dep.DependsOn = append(dep.DependsOn, p)
		}
		sort.Slice(dep.DependsOn, func(i, j int) bool {
			a, b := dep.DependsOn[i], dep.DependsOn[j]
			if a.Schema != b.Schema {
				return a.Schema < b.Schema
			}
			return a.Name < b.Name
		})
		deps = append(deps, dep)
	}
	sort.Slice(deps, func(i, j int) bool {
		a, b := deps[i].Table, deps[j].Table
		if a.Schema != b.Schema {
			return a.Schema < b.Schema
		}
		return a.Name < b.Name
	})

	return deps, nil
}
