package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type PostgresDialect struct{}

func (d *PostgresDialect) TablesQuery() string {
	return `SELECT table_schema, table_name
FROM information_schema.tables
WHERE table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
  AND table_type = 'BASE TABLE'
ORDER BY table_schema, table_name`
}

func (d *PostgresDialect) ColumnsQuery() string {
	// Primary key membership resolved via a subquery join so is_primary_key
	// is derived, never independently stored.
	return `SELECT
    c.column_name,
    c.data_type,
    c.is_nullable,
    c.column_default,
    c.ordinal_position,
    CASE WHEN pk.column_name IS NOT NULL THEN 'PRI' ELSE '' END AS column_key
FROM information_schema.columns c
LEFT JOIN (
    SELECT kcu.column_name
    FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu
        ON tc.constraint_name = kcu.constraint_name
        AND tc.table_schema = kcu.table_schema
    WHERE tc.table_schema = $1
        AND tc.table_name = $2
        AND tc.constraint_type = 'PRIMARY KEY'
) pk ON c.column_name = pk.column_name
WHERE c.table_schema = $1 AND c.table_name = $2
ORDER BY c.ordinal_position`
}

func (d *PostgresDialect) ForeignKeysQuery() string {
	return `SELECT
    tc.table_schema,
    tc.table_name,
    ccu.table_schema AS foreign_table_schema,
    ccu.table_name AS foreign_table_name
FROM information_schema.table_constraints AS tc
JOIN information_schema.key_column_usage AS kcu
    ON tc.constraint_name = kcu.constraint_name
    AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage AS ccu
    ON ccu.constraint_name = tc.constraint_name
    AND ccu.table_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY'
    AND tc.table_schema NOT IN ('pg_catalog', 'information_schema')`
}

func (d *PostgresDialect) QuoteIdent(name string) string {
	return quoteWith(name, `"`, `"`)
}

func (d *PostgresDialect) QualifyTable(schema, table string) string {
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d *PostgresDialect) CreateSchemaStmt(schema string) string {
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", d.QuoteIdent(schema))
}

func (d *PostgresDialect) CreateTablePrefix(ifNotExists bool) string {
	if ifNotExists {
		return "CREATE TABLE IF NOT EXISTS"
	}
	return "CREATE TABLE"
}

func (d *PostgresDialect) TruncateStmt(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)
}

func (d *PostgresDialect) DisableConstraints(ctx context.Context, db *sql.DB, table string) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s DISABLE TRIGGER ALL", table))
	return err
}

func (d *PostgresDialect) EnableConstraints(ctx context.Context, db *sql.DB, table string) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ENABLE TRIGGER ALL", table))
	return err
}

func (d *PostgresDialect) InsertIgnoreStmt(table string, cols []string, rows []string) string {
	return insertStmt(table, cols, rows) + " ON CONFLICT DO NOTHING"
}

func (d *PostgresDialect) LimitClause(query string, limit int) string {
	return fmt.Sprintf("%s LIMIT %d", query, limit)
}

func (d *PostgresDialect) LimitOffsetClause(query string, limit int, offset int64) string {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", query, limit, offset)
}

// ResyncSequences resets every sequence owned by a column of the table to
// max(column) + 1, so inserts that bypassed the generator don't collide with
// the next generated value.
func (d *PostgresDialect) ResyncSequences(ctx context.Context, db *sql.DB, schema, table string) error {
	query := `
        DO $$
        DECLARE
            r RECORD;
        BEGIN
            FOR r IN (
                SELECT
                    quote_ident(n.nspname) || '.' || quote_ident(s.relname) AS seq_fqn,
                    quote_ident(a.attname) AS col_name,
                    quote_ident(n.nspname) || '.' || quote_ident(t.relname) AS table_fqn
                FROM pg_class s
                JOIN pg_namespace n ON n.oid = s.relnamespace
                JOIN pg_depend d ON d.objid = s.oid AND d.deptype = 'a'
                JOIN pg_class t ON t.oid = d.refobjid
                JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = d.refobjsubid
                WHERE s.relkind = 'S'
                AND n.nspname = $1
                AND t.relname = $2
            ) LOOP
                EXECUTE format('SELECT setval(%L, COALESCE((SELECT MAX(%s) FROM %s), 0) + 1, false)',
                    r.seq_fqn, r.col_name, r.table_fqn);
            END LOOP;
        END $$;
    `
	if _, err := db.ExecContext(ctx, query, schema, table); err != nil {
		return fmt.Errorf("failed to sync sequences: %w", err)
	}
	return nil
}

func (d *PostgresDialect) NormalizeType(sqlType string) string {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	switch t {
	case "int4":
		return "integer"
	case "int2":
		return "smallint"
	case "int8":
		return "bigint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bpchar":
		return "char"
	default:
		return t
	}
}

func (d *PostgresDialect) DefaultSchema() string {
	return "public"
}
