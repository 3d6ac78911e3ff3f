package migrate

import (
	"testing"

	"db-bridge/internal/catalog"
	"db-bridge/internal/dialect"
)

func TestBuildBatchSelect_KeysetFirstBatch(t *testing.T) {
	d := dialect.GetDialect("postgres")
	cols := []string{`"id"`, `"name"`}

	query := buildBatchSelect(d, `"public"."users"`, cols, `"id"`, "", 1000, 0)

	want := `SELECT "id", "name" FROM "public"."users" ORDER BY "id" LIMIT 1000`
	if query != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, query)
	}
}

func TestBuildBatchSelect_KeysetSubsequentBatch(t *testing.T) {
	d := dialect.GetDialect("postgres")
	cols := []string{`"id"`}

	query := buildBatchSelect(d, `"public"."users"`, cols, `"id"`, "1000", 1000, 1000)

	want := `SELECT "id" FROM "public"."users" WHERE "id" > 1000 ORDER BY "id" LIMIT 1000`
	if query != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, query)
	}
}

func TestBuildBatchSelect_TextKeyStaysQuoted(t *testing.T) {
	d := dialect.GetDialect("postgres")
	cols := []string{`"code"`}

	query := buildBatchSelect(d, `"public"."countries"`, cols, `"code"`, "'KR'", 500, 500)

	want := `SELECT "code" FROM "public"."countries" WHERE "code" > 'KR' ORDER BY "code" LIMIT 500`
	if query != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, query)
	}
}

func TestBuildBatchSelect_NoPrimaryKeyFallsBackToOffset(t *testing.T) {
	d := dialect.GetDialect("postgres")
	cols := []string{`"a"`, `"b"`}

	query := buildBatchSelect(d, `"public"."log"`, cols, "", "", 1000, 2000)

	want := `SELECT "a", "b" FROM "public"."log" ORDER BY 1 LIMIT 1000 OFFSET 2000`
	if query != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, query)
	}
}

func TestBuildBatchSelect_MSSQLUsesTop(t *testing.T) {
	d := dialect.GetDialect("mssql")
	cols := []string{"[id]"}

	query := buildBatchSelect(d, "[dbo].[users]", cols, "[id]", "", 100, 0)

	want := "SELECT TOP 100 [id] FROM [dbo].[users] ORDER BY [id]"
	if query != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, query)
	}
}

func TestQuoteColumns(t *testing.T) {
	d := dialect.GetDialect("mysql")
	cols := []catalog.ColumnInfo{{Name: "id"}, {Name: "full_name"}}

	quoted := quoteColumns(d, cols)

	if quoted[0] != "`id`" || quoted[1] != "`full_name`" {
		t.Errorf("Unexpected quoting: %v", quoted)
	}
}
