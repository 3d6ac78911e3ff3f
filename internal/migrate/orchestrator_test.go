package migrate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"db-bridge/internal/catalog"
)

func testTables(names ...string) []catalog.TableRef {
	refs := make([]catalog.TableRef, len(names))
	for i, n := range names {
		refs[i] = catalog.TableRef{Schema: "public", Name: n}
	}
	return refs
}

func newTestOrchestrator(transfer func(ctx context.Context, current, total int, table catalog.TableRef) (int64, error)) (*Orchestrator, *CancelToken, *Emitter) {
	token := NewCancelToken()
	emitter := NewEmitter(128)
	o := NewOrchestrator(nil, nil, DefaultOptions(), token, emitter, "")
	o.transfer = transfer
	return o, token, emitter
}

func TestRun_AggregatesRowsAndTables(t *testing.T) {
	o, _, _ := newTestOrchestrator(func(ctx context.Context, current, total int, table catalog.TableRef) (int64, error) {
		return 100, nil
	})

	result := o.Run(context.Background(), testTables("a", "b", "c"))

	if !result.Success {
		t.Error("Expected success")
	}
	if result.TablesMigrated != 3 {
		t.Errorf("Expected 3 tables migrated, got %d", result.TablesMigrated)
	}
	if result.TotalRows != 300 {
		t.Errorf("Expected 300 rows, got %d", result.TotalRows)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}
}

func TestRun_OneFailureDoesNotAbortTheRest(t *testing.T) {
	var attempted []string
	o, _, _ := newTestOrchestrator(func(ctx context.Context, current, total int, table catalog.TableRef) (int64, error) {
		attempted = append(attempted, table.Name)
		if table.Name == "b" {
			return 0, errors.New("batch insert failed: duplicate key")
		}
		return 10, nil
	})

	result := o.Run(context.Background(), testTables("a", "b", "c"))

	if len(attempted) != 3 {
		t.Fatalf("Expected all 3 tables attempted, got %v", attempted)
	}
	if result.Success {
		t.Error("Expected failure result")
	}
	if result.TablesMigrated != 2 {
		t.Errorf("Expected 2 tables migrated, got %d", result.TablesMigrated)
	}
	if result.TotalRows != 20 {
		t.Errorf("Expected 20 rows, got %d", result.TotalRows)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %v", result.Errors)
	}
	want := "public.b: batch insert failed: duplicate key"
	if result.Errors[0] != want {
		t.Errorf("Expected %q, got %q", want, result.Errors[0])
	}
}

func TestRun_CancelBeforeTableStopsWithSingleNotice(t *testing.T) {
	var token *CancelToken
	var attempted int
	o, tok, _ := newTestOrchestrator(func(ctx context.Context, current, total int, table catalog.TableRef) (int64, error) {
		attempted++
		if attempted == 1 {
			token.Cancel()
		}
		return 5, nil
	})
	token = tok

	result := o.Run(context.Background(), testTables("a", "b", "c"))

	if attempted != 1 {
		t.Errorf("Expected 1 table attempted before cancellation, got %d", attempted)
	}
	if result.TablesMigrated != 1 {
		t.Errorf("Expected the completed table counted, got %d", result.TablesMigrated)
	}
	if len(result.Errors) != 1 || result.Errors[0] != "migration cancelled by user" {
		t.Errorf("Expected single cancellation notice, got %v", result.Errors)
	}
	if result.Success {
		t.Error("Cancelled run must not be successful")
	}
}

func TestRun_MidTableCancellationRecordedPerTable(t *testing.T) {
	o, _, _ := newTestOrchestrator(func(ctx context.Context, current, total int, table catalog.TableRef) (int64, error) {
		return 0, errCancelled
	})

	result := o.Run(context.Background(), testTables("a"))

	if len(result.Errors) != 1 || result.Errors[0] != "public.a: migration cancelled" {
		t.Errorf("Expected per-table cancellation entry, got %v", result.Errors)
	}
}

func TestRun_EmitsStartingPerTable(t *testing.T) {
	o, _, emitter := newTestOrchestrator(func(ctx context.Context, current, total int, table catalog.TableRef) (int64, error) {
		return 1, nil
	})

	o.Run(context.Background(), testTables("a", "b"))
	emitter.Close()

	var starting []Progress
	for p := range emitter.Events() {
		if p.Status == StatusStarting {
			starting = append(starting, p)
		}
	}
	if len(starting) != 2 {
		t.Fatalf("Expected 2 Starting events, got %d", len(starting))
	}
	if starting[0].TableName != "a" || starting[0].CurrentTable != 1 || starting[0].TotalTables != 2 {
		t.Errorf("Bad first event: %+v", starting[0])
	}
	if starting[1].TableName != "b" || starting[1].CurrentTable != 2 {
		t.Errorf("Bad second event: %+v", starting[1])
	}
}

func TestNewOrchestrator_NormalizesBatchSize(t *testing.T) {
	o := NewOrchestrator(nil, nil, Options{BatchSize: 0}, NewCancelToken(), nil, "")
	if o.options.BatchSize != defaultBatchSize {
		t.Errorf("Expected batch size %d, got %d", defaultBatchSize, o.options.BatchSize)
	}

	o = NewOrchestrator(nil, nil, Options{BatchSize: 250}, NewCancelToken(), nil, "")
	if o.options.BatchSize != 250 {
		t.Errorf("Explicit batch size overridden: got %d", o.options.BatchSize)
	}
}

func TestEmitter_DropsUnderBackPressureAndNilSafe(t *testing.T) {
	e := NewEmitter(2)
	for i := 0; i < 10; i++ {
		e.Emit(Progress{CurrentTable: i}) // must never block
	}
	e.Close()
	e.Close() // idempotent

	var got int
	for range e.Events() {
		got++
	}
	if got != 2 {
		t.Errorf("Expected 2 buffered events, got %d", got)
	}

	var nilEmitter *Emitter
	nilEmitter.Emit(Progress{}) // no panic
	nilEmitter.Close()
}

func TestCancelToken(t *testing.T) {
	tok := NewCancelToken()
	if tok.Cancelled() {
		t.Error("Fresh token must not be cancelled")
	}
	tok.Cancel()
	if !tok.Cancelled() {
		t.Error("Cancel did not stick")
	}
}

func TestRun_ErrorStringsAreSchemaQualified(t *testing.T) {
	o, _, _ := newTestOrchestrator(func(ctx context.Context, current, total int, table catalog.TableRef) (int64, error) {
		return 0, fmt.Errorf("failed to create table: permission denied")
	})

	result := o.Run(context.Background(), []catalog.TableRef{{Schema: "sales", Name: "invoices"}})

	want := "sales.invoices: failed to create table: permission denied"
	if len(result.Errors) != 1 || result.Errors[0] != want {
		t.Errorf("Expected %q, got %v", want, result.Errors)
	}
}
