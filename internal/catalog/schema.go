package catalog

import (
	"fmt"
	"strings"

	"db-bridge/internal/dialect"
)

// TableRef identifies a table by schema and name.
type TableRef struct {
	Schema string
	Name   string
}

func (t TableRef) String() string {
	return t.Schema + "." + t.Name
}

// ColumnInfo describes one column. Ordinal positions are unique within a
// table and define serialization order; IsPrimaryKey is derived from
// primary-key constraint membership during the catalog read.
type ColumnInfo struct {
	Name            string
	DataType        string
	IsNullable      bool
	Default         string
	IsPrimaryKey    bool
	OrdinalPosition int
}

// TableSchema is the full shape of one table, built fresh per migration
// call and never cached (the source schema may change between reads).
type TableSchema struct {
	Schema            string
	Table             string
	Columns           []ColumnInfo
	PrimaryKeyColumns []string
	CreateStatement   string
}

// TableDependency lists the distinct tables a table foreign-key-references.
// Self-references are excluded; a table never depends on itself for
// ordering purposes.
type TableDependency struct {
	Table     TableRef
	DependsOn []TableRef
}

// CreateTableStatement renders a CREATE TABLE for the given columns.
// Sequence-backed defaults (nextval) become SERIAL variants so the target
// doesn't reference a sequence that only exists on the source.
func CreateTableStatement(d dialect.Dialect, schema, table string, columns []ColumnInfo, primaryKeys []string, ifNotExists bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (\n", d.CreateTablePrefix(ifNotExists), d.QualifyTable(schema, table))

	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		dataType := col.DataType
		defaultClause := ""

		isSequence := strings.Contains(col.Default, "nextval")
		if isSequence {
			switch strings.ToLower(dataType) {
			case "integer":
				dataType = "SERIAL"
			case "bigint":
				dataType = "BIGSERIAL"
			case "smallint":
				dataType = "SMALLSERIAL"
			default:
				isSequence = false
			}
		}
		if !isSequence && col.Default != "" {
			defaultClause = " DEFAULT " + col.Default
		}

		def := fmt.Sprintf("    %s %s", d.QuoteIdent(col.Name), dataType)
		if !col.IsNullable && !isSequence { // SERIAL implies NOT NULL
			def += " NOT NULL"
		}
		def += defaultClause
		defs = append(defs, def)
	}
	b.WriteString(strings.Join(defs, ",\n"))

	if len(primaryKeys) > 0 {
		quoted := make([]string, len(primaryKeys))
		for i, pk := range primaryKeys {
			quoted[i] = d.QuoteIdent(pk)
		}
		fmt.Fprintf(&b, ",\n    PRIMARY KEY (%s)", strings.Join(quoted, ", "))
	}

	b.WriteString("\n);")
	return b.String()
}

// Compare reports flat column-level differences between two table shapes:
// missing columns on either side and declared-type mismatches by name.
func Compare(source, target *TableSchema) []string {
	var diffs []string

	targetCols := make(map[string]ColumnInfo, len(target.Columns))
	for _, c := range target.Columns {
		targetCols[c.Name] = c
	}

	for _, c := range source.Columns {
		tc, ok := targetCols[c.Name]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("column %s missing on target", c.Name))
			continue
		}
		if !strings.EqualFold(c.DataType, tc.DataType) {
			diffs = append(diffs, fmt.Sprintf("column %s type mismatch: source %s, target %s", c.Name, c.DataType, tc.DataType))
		}
		delete(targetCols, c.Name)
	}

	sourceCols := make(map[string]bool, len(source.Columns))
	for _, c := range source.Columns {
		sourceCols[c.Name] = true
	}
	for _, c := range target.Columns {
		if !sourceCols[c.Name] {
			diffs = append(diffs, fmt.Sprintf("column %s missing on source", c.Name))
		}
	}

	return diffs
}
