package mysql

import (
	"fmt"
	"strings"

	"salesetl/internal/ddl"
)

// quoteIdent quotes an identifier with backticks, escaping embedded ones.
func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// Dialect renders DDL for MySQL / Aurora MySQL.
var Dialect = ddl.Dialect{
	Name:  "mysql",
	Quote: quoteIdent,
	Type: func(c ddl.ColumnDef) string {
		switch c.Kind {
		case ddl.BigInt:
			return "BIGINT"
		case ddl.Int:
			return "INT"
		case ddl.Double:
			return "DOUBLE"
		case ddl.Varchar:
			return fmt.Sprintf("VARCHAR(%d)", c.Size)
		}
		return ""
	},
	IfNotExists: true,
}
