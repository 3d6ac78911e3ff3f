package dialect

import (
	"context"
	"database/sql"
	"fmt"
)

type MysqlDialect struct{}

func (d *MysqlDialect) TablesQuery() string {
	return `SELECT TABLE_SCHEMA, TABLE_NAME
FROM information_schema.TABLES
WHERE TABLE_SCHEMA NOT IN ('mysql', 'sys', 'information_schema', 'performance_schema')
  AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_SCHEMA, TABLE_NAME`
}

func (d *MysqlDialect) ColumnsQuery() string {
	return `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT, ORDINAL_POSITION,
    IF(COLUMN_KEY = 'PRI', 'PRI', '') AS COLUMN_KEY
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`
}

func (d *MysqlDialect) ForeignKeysQuery() string {
	return `SELECT TABLE_SCHEMA, TABLE_NAME, REFERENCED_TABLE_SCHEMA, REFERENCED_TABLE_NAME
FROM information_schema.KEY_COLUMN_USAGE
WHERE REFERENCED_TABLE_NAME IS NOT NULL
  AND TABLE_SCHEMA NOT IN ('mysql', 'sys', 'information_schema', 'performance_schema')`
}

func (d *MysqlDialect) QuoteIdent(name string) string {
	return quoteWith(name, "`", "`")
}

func (d *MysqlDialect) QualifyTable(schema, table string) string {
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

// In MySQL a schema and a database are the same namespace.
func (d *MysqlDialect) CreateSchemaStmt(schema string) string {
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", d.QuoteIdent(schema))
}

func (d *MysqlDialect) CreateTablePrefix(ifNotExists bool) string {
	if ifNotExists {
		return "CREATE TABLE IF NOT EXISTS"
	}
	return "CREATE TABLE"
}

func (d *MysqlDialect) TruncateStmt(table string) string {
	// No CASCADE; dependent rows survive only because FK checks are toggled
	// off around the load.
	return fmt.Sprintf("TRUNCATE TABLE %s", table)
}

func (d *MysqlDialect) DisableConstraints(ctx context.Context, db *sql.DB, table string) error {
	_, err := db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0")
	return err
}

func (d *MysqlDialect) EnableConstraints(ctx context.Context, db *sql.DB, table string) error {
	_, err := db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
	return err
}

func (d *MysqlDialect) InsertIgnoreStmt(table string, cols []string, rows []string) string {
	return fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES %s", table, columnList(cols), valuesList(rows))
}

func (d *MysqlDialect) LimitClause(query string, limit int) string {
	return fmt.Sprintf("%s LIMIT %d", query, limit)
}

func (d *MysqlDialect) LimitOffsetClause(query string, limit int, offset int64) string {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", query, limit, offset)
}

// ResyncSequences bumps AUTO_INCREMENT past the loaded maximum for the
// auto-increment column, if the table has one.
func (d *MysqlDialect) ResyncSequences(ctx context.Context, db *sql.DB, schema, table string) error {
	var col string
	err := db.QueryRowContext(ctx,
		`SELECT COLUMN_NAME FROM information_schema.COLUMNS
         WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND EXTRA LIKE '%auto_increment%' LIMIT 1`,
		schema, table).Scan(&col)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find auto_increment column: %w", err)
	}

	qualified := d.QualifyTable(schema, table)
	var next int64
	err = db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s", d.QuoteIdent(col), qualified)).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to read max(%s): %w", col, err)
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = %d", qualified, next))
	return err
}

func (d *MysqlDialect) NormalizeType(sqlType string) string {
	return DefaultNormalizeType(sqlType)
}

func (d *MysqlDialect) DefaultSchema() string {
	return ""
}
