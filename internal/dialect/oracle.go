package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type OracleDialect struct{}

// Oracle scopes catalog views to the connected user (USER_ views); the
// schema column reported back is always the session user.

func (d *OracleDialect) TablesQuery() string {
	return `SELECT USER AS TABLE_SCHEMA, TABLE_NAME FROM USER_TABLES ORDER BY TABLE_NAME`
}

func (d *OracleDialect) ColumnsQuery() string {
	// go-ora binds positional args by order of appearance, not by number,
	// so the schema consumer must occur before the table comparison.
	return `SELECT
    t.COLUMN_NAME,
    LOWER(t.DATA_TYPE),
    t.NULLABLE,
    t.DATA_DEFAULT,
    t.COLUMN_ID,
    CASE WHEN p.COLUMN_NAME IS NOT NULL THEN 'PRI' ELSE '' END AS COLUMN_KEY
FROM USER_TAB_COLUMNS t
LEFT JOIN (
    SELECT cc.TABLE_NAME, cc.COLUMN_NAME
    FROM USER_CONS_COLUMNS cc
    JOIN USER_CONSTRAINTS uc ON cc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
    WHERE uc.CONSTRAINT_TYPE = 'P'
) p ON t.TABLE_NAME = p.TABLE_NAME AND t.COLUMN_NAME = p.COLUMN_NAME
WHERE :1 IS NOT NULL AND t.TABLE_NAME = :2
ORDER BY t.COLUMN_ID`
}

func (d *OracleDialect) ForeignKeysQuery() string {
	return `SELECT USER AS TABLE_SCHEMA, c.TABLE_NAME, USER AS REF_SCHEMA, r.TABLE_NAME AS REF_TABLE
FROM USER_CONSTRAINTS c
JOIN USER_CONSTRAINTS r ON c.R_CONSTRAINT_NAME = r.CONSTRAINT_NAME
WHERE c.CONSTRAINT_TYPE = 'R'`
}

func (d *OracleDialect) QuoteIdent(name string) string {
	return quoteWith(name, `"`, `"`)
}

func (d *OracleDialect) QualifyTable(schema, table string) string {
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

// Schemas are users in Oracle; there is nothing to create here.
func (d *OracleDialect) CreateSchemaStmt(schema string) string {
	return ""
}

func (d *OracleDialect) CreateTablePrefix(ifNotExists bool) string {
	return "CREATE TABLE"
}

func (d *OracleDialect) TruncateStmt(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s", table)
}

func (d *OracleDialect) DisableConstraints(ctx context.Context, db *sql.DB, table string) error {
	return d.toggleConstraints(ctx, db, table, "DISABLE", "ENABLED")
}

func (d *OracleDialect) EnableConstraints(ctx context.Context, db *sql.DB, table string) error {
	return d.toggleConstraints(ctx, db, table, "ENABLE", "DISABLED")
}

func (d *OracleDialect) toggleConstraints(ctx context.Context, db *sql.DB, table, action, fromStatus string) error {
	// table arrives quoted and qualified; the catalog stores bare upper-case names.
	bare := strings.ToUpper(strings.Trim(table[strings.LastIndex(table, ".")+1:], `"`))

	rows, err := db.QueryContext(ctx,
		`SELECT CONSTRAINT_NAME FROM USER_CONSTRAINTS WHERE CONSTRAINT_TYPE = 'R' AND TABLE_NAME = :1 AND STATUS = :2`,
		bare, fromStatus)
	if err != nil {
		return err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return err
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, n := range names {
		stmt := fmt.Sprintf("ALTER TABLE %s %s CONSTRAINT %s", d.QuoteIdent(bare), action, d.QuoteIdent(n))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to %s constraint %s on %s: %w", strings.ToLower(action), n, bare, err)
		}
	}
	return nil
}

// Oracle has no multi-row VALUES; INSERT ALL fans the tuples out.
func (d *OracleDialect) InsertIgnoreStmt(table string, cols []string, rows []string) string {
	var b strings.Builder
	b.WriteString("INSERT ALL")
	for _, r := range rows {
		fmt.Fprintf(&b, " INTO %s (%s) VALUES %s", table, columnList(cols), r)
	}
	b.WriteString(" SELECT 1 FROM DUAL")
	return b.String()
}

func (d *OracleDialect) LimitClause(query string, limit int) string {
	return fmt.Sprintf("SELECT * FROM (%s) WHERE ROWNUM <= %d", query, limit)
}

func (d *OracleDialect) LimitOffsetClause(query string, limit int, offset int64) string {
	return fmt.Sprintf("%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", query, offset, limit)
}

// Identity columns keep their own sequences current only for generated
// values; there is no portable reseed statement, so this is a no-op.
func (d *OracleDialect) ResyncSequences(ctx context.Context, db *sql.DB, schema, table string) error {
	return nil
}

func (d *OracleDialect) NormalizeType(sqlType string) string {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	switch {
	case strings.HasPrefix(t, "timestamp") && strings.Contains(t, "time zone"):
		return "timestamp with time zone"
	case strings.HasPrefix(t, "timestamp"):
		return "timestamp"
	case t == "number":
		return "numeric"
	case t == "binary_float":
		return "real"
	case t == "binary_double":
		return "double precision"
	default:
		return t
	}
}

func (d *OracleDialect) DefaultSchema() string {
	return ""
}
