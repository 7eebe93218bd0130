// Package ddl defines a small, backend-agnostic model for SQL DDL and a
// renderer for CREATE TABLE statements driven by a per-backend Dialect.
//
// Backends (internal/storage/mysql, postgres, sqlite, mssql) provide the
// Dialect: identifier quoting, logical-to-SQL type mapping and whether the
// statement may use IF NOT EXISTS.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders a CREATE TABLE statement for t in dialect d.
//
// Rules:
//
//   - t.FQN must be non-empty; each dotted segment is quoted with d.Quote.
//
//   - Each column must have a non-empty Name.
//
//   - A column is rendered as:
//
//     <Name> <Type> [NOT NULL]
//
//     where NOT NULL is added when Nullable == false or PrimaryKey == true.
//
//   - Columns with PrimaryKey == true are collected into a trailing
//     PRIMARY KEY (...) clause, in declaration order.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}
	if d.Quote == nil || d.Type == nil {
		return "", fmt.Errorf("%s ddl: dialect is incomplete", d.Name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(d.Type(c))
		if typ == "" {
			return "", fmt.Errorf("%s ddl: no SQL type for column %s", d.Name, name)
		}

		var sb strings.Builder
		sb.WriteString(d.Quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.Quote(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	create := "CREATE TABLE "
	if d.IfNotExists {
		create = "CREATE TABLE IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (\n  %s\n)", create, d.QuoteFQN(fqn), strings.Join(cols, ",\n  ")), nil
}
