package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"db-bridge/internal/catalog"
	"db-bridge/internal/codec"
	"db-bridge/internal/dialect"
)

// migrateTable moves one table: prepare the target, stream batches from
// the source, and resynchronize sequences. Returns the rows transferred.
func (o *Orchestrator) migrateTable(ctx context.Context, current, total int, table catalog.TableRef) (int64, error) {
	srcDB, srcDialect := o.source.DB, o.source.Dialect
	tgtDB, tgtDialect := o.target.DB, o.target.Dialect

	targetSchema := table.Schema
	if o.targetSchemaOverride != "" {
		targetSchema = o.targetSchemaOverride
	}
	sourceTable := srcDialect.QualifyTable(table.Schema, table.Name)
	targetTable := tgtDialect.QualifyTable(targetSchema, table.Name)

	// Schema is read fresh per call; it may have changed since the caller
	// selected the table.
	schema, err := catalog.ReadTableSchema(ctx, srcDB, srcDialect, table.Schema, table.Name)
	if err != nil {
		return 0, err
	}
	totalRows, err := catalog.RowCount(ctx, srcDB, srcDialect, table.Schema, table.Name)
	if err != nil {
		return 0, err
	}

	o.emit(table.Name, current, total, 0, totalRows, StatusPreparing, "")

	// Ensure the target schema namespace exists. Idempotent, best effort:
	// a pre-existing schema or missing privilege surfaces later if it matters.
	if stmt := tgtDialect.CreateSchemaStmt(targetSchema); stmt != "" {
		if _, err := tgtDB.ExecContext(ctx, stmt); err != nil {
			log.Printf("Warning: failed to ensure schema %s: %v", targetSchema, err)
		}
	}

	if o.options.CreateTableIfNotExists {
		stmt := catalog.CreateTableStatement(tgtDialect, targetSchema, table.Name, schema.Columns, schema.PrimaryKeyColumns, true)
		if _, err := tgtDB.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("failed to create table: %w", err)
		}
	}

	if o.options.TruncateBeforeInsert {
		if _, err := tgtDB.ExecContext(ctx, tgtDialect.TruncateStmt(targetTable)); err != nil {
			return 0, fmt.Errorf("failed to truncate: %w", err)
		}
	}

	if o.options.DisableConstraints {
		if err := tgtDialect.DisableConstraints(ctx, tgtDB, targetTable); err != nil {
			log.Printf("Warning: failed to disable constraints on %s: %v", targetTable, err)
		}
	}

	srcCols := quoteColumns(srcDialect, schema.Columns)
	tgtCols := quoteColumns(tgtDialect, schema.Columns)

	// Keyset pagination rides the first primary-key column; without a
	// primary key the loop falls back to ordinal ordering with an offset.
	pkIndex := -1
	pkQuoted := ""
	if len(schema.PrimaryKeyColumns) > 0 {
		pk := schema.PrimaryKeyColumns[0]
		pkQuoted = srcDialect.QuoteIdent(pk)
		for i, c := range schema.Columns {
			if c.Name == pk {
				pkIndex = i
				break
			}
		}
	}

	var rowsTransferred int64
	lastKey := ""

	for {
		// Cancellation is observed only here, between batches; an
		// in-flight statement is never interrupted.
		if o.token.Cancelled() {
			return 0, errCancelled
		}

		query := buildBatchSelect(srcDialect, sourceTable, srcCols, pkQuoted, lastKey, o.options.BatchSize, rowsTransferred)

		tuples, batchKey, err := fetchBatch(ctx, srcDB, query, schema.Columns, pkIndex)
		if err != nil {
			return 0, err
		}
		if len(tuples) == 0 {
			break
		}
		if batchKey != "" {
			lastKey = batchKey
		}

		insert := tgtDialect.InsertIgnoreStmt(targetTable, tgtCols, tuples)
		if _, err := tgtDB.ExecContext(ctx, insert); err != nil {
			return 0, fmt.Errorf("batch insert failed: %w", err)
		}

		rowsTransferred += int64(len(tuples))
		o.emit(table.Name, current, total, rowsTransferred, totalRows, StatusMigrating, "")

		if len(tuples) < o.options.BatchSize {
			break
		}
	}

	if o.options.DisableConstraints {
		if err := tgtDialect.EnableConstraints(ctx, tgtDB, targetTable); err != nil {
			log.Printf("Warning: failed to re-enable constraints on %s: %v", targetTable, err)
		}
	}

	// Best effort: a failed resync leaves the sequence stale but the data
	// intact, which a later run can repair.
	if err := tgtDialect.ResyncSequences(ctx, tgtDB, targetSchema, table.Name); err != nil {
		log.Printf("Warning: failed to resync sequences for %s: %v", targetTable, err)
	}

	o.emit(table.Name, current, total, rowsTransferred, totalRows, StatusComplete, "")
	return rowsTransferred, nil
}

// buildBatchSelect produces the next batch's fetch query: keyset
// pagination when a primary-key column is available, ordinal ordering with
// a numeric offset otherwise.
func buildBatchSelect(d dialect.Dialect, table string, cols []string, pk, lastKey string, batchSize int, offset int64) string {
	selectList := strings.Join(cols, ", ")
	if pk != "" {
		query := fmt.Sprintf("SELECT %s FROM %s", selectList, table)
		if lastKey != "" {
			query += fmt.Sprintf(" WHERE %s > %s", pk, lastKey)
		}
		query += fmt.Sprintf(" ORDER BY %s", pk)
		return d.LimitClause(query, batchSize)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY 1", selectList, table)
	return d.LimitOffsetClause(query, batchSize, offset)
}

// fetchBatch runs one batch query and serializes every row into a value
// tuple. It also returns the rendered key of the last row for the next
// keyset iteration.
func fetchBatch(ctx context.Context, db *sql.DB, query string, columns []catalog.ColumnInfo, pkIndex int) ([]string, string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch data: %w", err)
	}
	defer rows.Close()

	values := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	var tuples []string
	lastKey := ""
	literals := make([]string, len(columns))

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, "", fmt.Errorf("failed to scan row: %w", err)
		}
		for i, col := range columns {
			lit, err := codec.Literal(values[i], col.Name, col.DataType)
			if err != nil {
				return nil, "", err
			}
			literals[i] = lit
		}
		if pkIndex >= 0 {
			lastKey = literals[pkIndex]
		}
		tuples = append(tuples, "("+strings.Join(literals, ", ")+")")
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to fetch data: %w", err)
	}

	return tuples, lastKey, nil
}

func quoteColumns(d dialect.Dialect, columns []catalog.ColumnInfo) []string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c.Name)
	}
	return quoted
}
