package ddl

import "strings"

// Kind is the logical type of a column. Backends translate it into their own
// SQL type names when rendering a CREATE TABLE statement.
type Kind int

const (
	BigInt Kind = iota
	Int
	Double
	Varchar
)

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - Kind: logical type, mapped per dialect
//   - Size: length for Varchar columns; ignored otherwise
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	Kind       Kind
	Size       int
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name (optionally schema-qualified, e.g.
// "dbo.sales") and an ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnNames returns the column names of t in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Dialect carries the backend-specific pieces needed to render DDL.
type Dialect struct {
	// Name is used in error messages, e.g. "mysql".
	Name string

	// Quote quotes a single identifier segment.
	Quote func(id string) string

	// Type renders the SQL type for a column, e.g. "VARCHAR(64)".
	Type func(c ColumnDef) string

	// IfNotExists emits CREATE TABLE IF NOT EXISTS. Dialects without that
	// clause (SQL Server) wrap the statement themselves.
	IfNotExists bool
}

// QuoteFQN quotes each dot-separated segment of name with d.Quote.
func (d Dialect) QuoteFQN(name string) string {
	parts := strings.Split(strings.TrimSpace(name), ".")
	for i, p := range parts {
		parts[i] = d.Quote(p)
	}
	return strings.Join(parts, ".")
}
