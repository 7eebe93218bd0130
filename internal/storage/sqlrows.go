package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// ScanRows drains rows from a database/sql query into column-keyed maps.
// Byte slices are converted to strings, or to float64 when the column's
// database type is numeric (DECIMAL sums come back as text from some
// drivers).
func ScanRows(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("storage: columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("storage: column types: %w", err)
	}

	out := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			m[c] = normalizeValue(vals[i], types[i].DatabaseTypeName())
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: rows: %w", err)
	}
	return out, nil
}

func normalizeValue(v any, dbType string) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	s := string(b)
	if isNumericType(dbType) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func isNumericType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "DECIMAL", "NEWDECIMAL", "NUMERIC", "DOUBLE", "FLOAT", "REAL", "MONEY":
		return true
	}
	return false
}
