package dialect

import (
	"context"
	"database/sql"
)

// Dialect abstracts database-specific operations for both endpoints of a
// migration: catalog introspection on the source and statement generation
// on the target.
type Dialect interface {
	// Metadata Queries (Schema Introspection)
	TablesQuery() string      // no binds; rows: schema, table
	ColumnsQuery() string     // binds: schema, table; rows: name, type, nullable, default, position, key
	ForeignKeysQuery() string // no binds; rows: schema, table, ref_schema, ref_table

	// Identifier Handling
	QuoteIdent(name string) string
	QualifyTable(schema, table string) string

	// Target Preparation
	CreateSchemaStmt(schema string) string // empty when the engine has no creatable schemas
	CreateTablePrefix(ifNotExists bool) string
	TruncateStmt(table string) string
	DisableConstraints(ctx context.Context, db *sql.DB, table string) error
	EnableConstraints(ctx context.Context, db *sql.DB, table string) error

	// Transfer Statement Generation
	InsertIgnoreStmt(table string, cols []string, rows []string) string
	LimitClause(query string, limit int) string
	LimitOffsetClause(query string, limit int, offset int64) string

	// Completion Hooks
	ResyncSequences(ctx context.Context, db *sql.DB, schema, table string) error

	// Helpers
	NormalizeType(sqlType string) string
	DefaultSchema() string
}
