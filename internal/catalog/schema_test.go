package catalog_test

import (
	"strings"
	"testing"

	"db-bridge/internal/catalog"
	"db-bridge/internal/dialect"
)

func TestCreateTableStatement_SerialSubstitution(t *testing.T) {
	d := dialect.GetDialect("postgres")
	columns := []catalog.ColumnInfo{
		{Name: "id", DataType: "integer", Default: "nextval('users_id_seq'::regclass)"},
		{Name: "big_id", DataType: "bigint", Default: "nextval('users_big_id_seq'::regclass)"},
		{Name: "name", DataType: "text", IsNullable: false},
	}

	stmt := catalog.CreateTableStatement(d, "public", "users", columns, []string{"id"}, true)

	if !strings.HasPrefix(stmt, `CREATE TABLE IF NOT EXISTS "public"."users" (`) {
		t.Errorf("Bad prefix:\n%s", stmt)
	}
	if !strings.Contains(stmt, `"id" SERIAL`) {
		t.Errorf("integer nextval default should become SERIAL:\n%s", stmt)
	}
	if !strings.Contains(stmt, `"big_id" BIGSERIAL`) {
		t.Errorf("bigint nextval default should become BIGSERIAL:\n%s", stmt)
	}
	if strings.Contains(stmt, "nextval") {
		t.Errorf("Source sequence leaked into target DDL:\n%s", stmt)
	}
	// SERIAL implies NOT NULL; it must not be repeated.
	if strings.Contains(stmt, "SERIAL NOT NULL") {
		t.Errorf("Redundant NOT NULL on SERIAL:\n%s", stmt)
	}
	if !strings.Contains(stmt, `"name" text NOT NULL`) {
		t.Errorf("Missing NOT NULL on name:\n%s", stmt)
	}
	if !strings.Contains(stmt, `PRIMARY KEY ("id")`) {
		t.Errorf("Missing primary key clause:\n%s", stmt)
	}
	if !strings.HasSuffix(stmt, ");") {
		t.Errorf("Statement must close the column list:\n%s", stmt)
	}
}

func TestCreateTableStatement_DefaultsAndNullable(t *testing.T) {
	d := dialect.GetDialect("postgres")
	columns := []catalog.ColumnInfo{
		{Name: "status", DataType: "text", IsNullable: true, Default: "'active'::text"},
		{Name: "note", DataType: "text", IsNullable: true},
	}

	stmt := catalog.CreateTableStatement(d, "public", "things", columns, nil, false)

	if !strings.HasPrefix(stmt, `CREATE TABLE "public"."things"`) {
		t.Errorf("ifNotExists=false must use the plain prefix:\n%s", stmt)
	}
	if !strings.Contains(stmt, `"status" text DEFAULT 'active'::text`) {
		t.Errorf("Plain default not carried over:\n%s", stmt)
	}
	if strings.Contains(stmt, `"note" text NOT NULL`) {
		t.Errorf("Nullable column marked NOT NULL:\n%s", stmt)
	}
	if strings.Contains(stmt, "PRIMARY KEY") {
		t.Errorf("Keyless table got a PRIMARY KEY clause:\n%s", stmt)
	}
}

func TestCreateTableStatement_CompositeKeyAndQuoting(t *testing.T) {
	d := dialect.GetDialect("postgres")
	columns := []catalog.ColumnInfo{
		{Name: "order_id", DataType: "bigint"},
		{Name: "line", DataType: "integer"},
	}

	stmt := catalog.CreateTableStatement(d, "sales", "order_lines", columns, []string{"order_id", "line"}, true)

	if !strings.Contains(stmt, `PRIMARY KEY ("order_id", "line")`) {
		t.Errorf("Composite key not rendered:\n%s", stmt)
	}
}

func TestCompare(t *testing.T) {
	source := &catalog.TableSchema{
		Schema: "public", Table: "users",
		Columns: []catalog.ColumnInfo{
			{Name: "id", DataType: "bigint"},
			{Name: "name", DataType: "text"},
			{Name: "only_source", DataType: "text"},
		},
	}
	target := &catalog.TableSchema{
		Schema: "public", Table: "users",
		Columns: []catalog.ColumnInfo{
			{Name: "id", DataType: "BIGINT"}, // case-insensitive match
			{Name: "name", DataType: "varchar"},
			{Name: "only_target", DataType: "text"},
		},
	}

	diffs := catalog.Compare(source, target)

	if len(diffs) != 3 {
		t.Fatalf("Expected 3 diffs, got %v", diffs)
	}
	joined := strings.Join(diffs, "\n")
	if !strings.Contains(joined, "name type mismatch") {
		t.Errorf("Missing type mismatch diff: %v", diffs)
	}
	if !strings.Contains(joined, "only_source missing on target") {
		t.Errorf("Missing source-only diff: %v", diffs)
	}
	if !strings.Contains(joined, "only_target missing on source") {
		t.Errorf("Missing target-only diff: %v", diffs)
	}
}

func TestCompare_IdenticalShapes(t *testing.T) {
	s := &catalog.TableSchema{Columns: []catalog.ColumnInfo{{Name: "id", DataType: "bigint"}}}
	if diffs := catalog.Compare(s, s); len(diffs) != 0 {
		t.Errorf("Expected no diffs, got %v", diffs)
	}
}

func TestTableRefString(t *testing.T) {
	r := catalog.TableRef{Schema: "public", Name: "users"}
	if r.String() != "public.users" {
		t.Errorf("Expected public.users, got %s", r)
	}
}
