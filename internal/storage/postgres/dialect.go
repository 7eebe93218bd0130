package postgres

import (
	"fmt"
	"strings"

	"salesetl/internal/ddl"
)

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// Dialect renders DDL for Postgres.
var Dialect = ddl.Dialect{
	Name:  "postgres",
	Quote: pgIdent,
	Type: func(c ddl.ColumnDef) string {
		switch c.Kind {
		case ddl.BigInt:
			return "BIGINT"
		case ddl.Int:
			return "INTEGER"
		case ddl.Double:
			return "DOUBLE PRECISION"
		case ddl.Varchar:
			return fmt.Sprintf("VARCHAR(%d)", c.Size)
		}
		return ""
	},
	IfNotExists: true,
}
