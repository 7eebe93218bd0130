package mssql

import (
	"fmt"
	"strings"

	"salesetl/internal/ddl"
)

// msIdent safely quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// Dialect renders DDL for SQL Server. IfNotExists is false; EnsureTable adds
// an OBJECT_ID guard instead.
var Dialect = ddl.Dialect{
	Name:  "mssql",
	Quote: msIdent,
	Type: func(c ddl.ColumnDef) string {
		switch c.Kind {
		case ddl.BigInt:
			return "BIGINT"
		case ddl.Int:
			return "INT"
		case ddl.Double:
			return "FLOAT"
		case ddl.Varchar:
			return fmt.Sprintf("NVARCHAR(%d)", c.Size)
		}
		return ""
	},
}
