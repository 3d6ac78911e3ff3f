package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type MSSQLDialect struct{}

// The go-mssqldb driver prefers @p1, @p2 named parameters over ?.

func (d *MSSQLDialect) TablesQuery() string {
	return `SELECT TABLE_SCHEMA, TABLE_NAME
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_SCHEMA, TABLE_NAME`
}

func (d *MSSQLDialect) ColumnsQuery() string {
	return `SELECT
    c.COLUMN_NAME,
    c.DATA_TYPE,
    c.IS_NULLABLE,
    c.COLUMN_DEFAULT,
    c.ORDINAL_POSITION,
    CASE WHEN pk.COLUMN_NAME IS NOT NULL THEN 'PRI' ELSE '' END AS COLUMN_KEY
FROM INFORMATION_SCHEMA.COLUMNS c
LEFT JOIN (
    SELECT kcu.TABLE_NAME, kcu.COLUMN_NAME
    FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
    JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
        ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
    WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = @p1 AND tc.TABLE_NAME = @p2
) pk ON c.TABLE_NAME = pk.TABLE_NAME AND c.COLUMN_NAME = pk.COLUMN_NAME
WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
ORDER BY c.ORDINAL_POSITION`
}

func (d *MSSQLDialect) ForeignKeysQuery() string {
	return `SELECT KCU1.TABLE_SCHEMA, KCU1.TABLE_NAME, KCU2.TABLE_SCHEMA AS REF_SCHEMA, KCU2.TABLE_NAME AS REF_TABLE
FROM INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS RC
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE KCU1 ON RC.CONSTRAINT_NAME = KCU1.CONSTRAINT_NAME
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE KCU2 ON RC.UNIQUE_CONSTRAINT_NAME = KCU2.CONSTRAINT_NAME`
}

func (d *MSSQLDialect) QuoteIdent(name string) string {
	return quoteWith(name, "[", "]")
}

func (d *MSSQLDialect) QualifyTable(schema, table string) string {
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d *MSSQLDialect) CreateSchemaStmt(schema string) string {
	literal := strings.ReplaceAll(schema, "'", "''")
	return fmt.Sprintf("IF SCHEMA_ID(N'%s') IS NULL EXEC(N'CREATE SCHEMA %s')",
		literal, strings.ReplaceAll(d.QuoteIdent(schema), "'", "''"))
}

// T-SQL has no CREATE TABLE IF NOT EXISTS; repeat runs surface the
// "already exists" error to the caller.
func (d *MSSQLDialect) CreateTablePrefix(ifNotExists bool) string {
	return "CREATE TABLE"
}

// DELETE instead of TRUNCATE: TRUNCATE fails on tables referenced by
// foreign keys even when the constraints are disabled.
func (d *MSSQLDialect) TruncateStmt(table string) string {
	return fmt.Sprintf("DELETE FROM %s", table)
}

func (d *MSSQLDialect) DisableConstraints(ctx context.Context, db *sql.DB, table string) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s NOCHECK CONSTRAINT ALL", table))
	return err
}

func (d *MSSQLDialect) EnableConstraints(ctx context.Context, db *sql.DB, table string) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s WITH CHECK CHECK CONSTRAINT ALL", table))
	return err
}

// No conflict-ignoring insert in T-SQL; idempotent re-runs rely on the
// target's own key constraints rejecting duplicates batch-wide.
func (d *MSSQLDialect) InsertIgnoreStmt(table string, cols []string, rows []string) string {
	return insertStmt(table, cols, rows)
}

func (d *MSSQLDialect) LimitClause(query string, limit int) string {
	trimmed := strings.TrimSpace(query)
	if strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return strings.Replace(query, "SELECT", fmt.Sprintf("SELECT TOP %d", limit), 1)
	}
	return query
}

func (d *MSSQLDialect) LimitOffsetClause(query string, limit int, offset int64) string {
	// Requires an ORDER BY on the query, which the batch loop always adds.
	return fmt.Sprintf("%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", query, offset, limit)
}

// ResyncSequences reseeds the table's IDENTITY to the current maximum.
func (d *MSSQLDialect) ResyncSequences(ctx context.Context, db *sql.DB, schema, table string) error {
	literal := strings.ReplaceAll(fmt.Sprintf("%s.%s", schema, table), "'", "''")
	_, err := db.ExecContext(ctx, fmt.Sprintf("DBCC CHECKIDENT ('%s', RESEED)", literal))
	return err
}

func (d *MSSQLDialect) NormalizeType(sqlType string) string {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	switch t {
	case "bit":
		return "boolean"
	case "money", "smallmoney":
		return "decimal"
	case "datetime", "datetime2", "smalldatetime":
		return "timestamp"
	case "float":
		return "double precision"
	default:
		return t
	}
}

func (d *MSSQLDialect) DefaultSchema() string {
	return "dbo"
}
