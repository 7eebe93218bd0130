package sqlite

import (
	"fmt"
	"strings"

	"salesetl/internal/ddl"
)

// quoteIdent quotes an identifier with double quotes, escaping embedded ones.
func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// Dialect renders DDL for SQLite. Column types use SQLite's affinity names;
// VARCHAR(n) is accepted and maps to TEXT affinity.
var Dialect = ddl.Dialect{
	Name:  "sqlite",
	Quote: quoteIdent,
	Type: func(c ddl.ColumnDef) string {
		switch c.Kind {
		case ddl.BigInt, ddl.Int:
			return "INTEGER"
		case ddl.Double:
			return "REAL"
		case ddl.Varchar:
			return fmt.Sprintf("VARCHAR(%d)", c.Size)
		}
		return ""
	},
	IfNotExists: true,
}
