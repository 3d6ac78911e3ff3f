package dialect

import (
	"fmt"
	"strings"
)

// quoteWith wraps name in the given delimiters, doubling any embedded
// closing delimiter so the identifier stays valid.
func quoteWith(name, open, close string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

// columnList renders "a, b, c" from already-quoted column names.
func columnList(cols []string) string {
	return strings.Join(cols, ", ")
}

// valuesList renders the multi-row VALUES body from pre-rendered row tuples.
func valuesList(rows []string) string {
	return strings.Join(rows, ", ")
}

// insertStmt is the shared plain INSERT shape used by several dialects.
func insertStmt(table string, cols []string, rows []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, columnList(cols), valuesList(rows))
}

// DefaultNormalizeType is a default implementation for type normalization (lowercase).
func DefaultNormalizeType(sqlType string) string {
	return strings.ToLower(strings.TrimSpace(sqlType))
}
