package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"db-bridge/internal/catalog"
	"db-bridge/internal/conn"
)

var errCancelled = errors.New("migration cancelled")

// Orchestrator drives one migration job: tables strictly sequentially, in
// the order given (callers apply SortByDependency first), one table's
// failure never aborting the rest.
type Orchestrator struct {
	source *conn.Conn
	target *conn.Conn

	options              Options
	targetSchemaOverride string
	token                *CancelToken
	emitter              *Emitter

	// transfer is the per-table routine; swapped out in tests.
	transfer func(ctx context.Context, current, total int, table catalog.TableRef) (int64, error)
}

func NewOrchestrator(source, target *conn.Conn, options Options, token *CancelToken, emitter *Emitter, targetSchemaOverride string) *Orchestrator {
	o := &Orchestrator{
		source:               source,
		target:               target,
		options:              options.normalized(),
		targetSchemaOverride: targetSchemaOverride,
		token:                token,
		emitter:              emitter,
	}
	o.transfer = o.migrateTable
	return o
}

// Run processes the tables and aggregates the outcome. It always returns
// a Result; per-table errors are recorded as "schema.table: message"
// entries and cancellation as a single summary notice.
func (o *Orchestrator) Run(ctx context.Context, tables []catalog.TableRef) Result {
	start := time.Now()
	total := len(tables)

	var result Result
	for idx, table := range tables {
		if o.token.Cancelled() {
			result.Errors = append(result.Errors, "migration cancelled by user")
			break
		}

		o.emit(table.Name, idx+1, total, 0, 0, StatusStarting, "")

		rows, err := o.transfer(ctx, idx+1, total, table)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", table, err))
			continue
		}
		result.TablesMigrated++
		result.TotalRows += rows
	}

	result.Elapsed = time.Since(start)
	result.Success = len(result.Errors) == 0
	return result
}

func (o *Orchestrator) emit(table string, current, total int, rows, totalRows int64, status, errText string) {
	o.emitter.Emit(Progress{
		TableName:       table,
		CurrentTable:    current,
		TotalTables:     total,
		RowsTransferred: rows,
		TotalRows:       totalRows,
		Status:          status,
		Error:           errText,
	})
}
