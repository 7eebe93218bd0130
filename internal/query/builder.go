// Package query builds parameterized aggregate queries over the sales table
// from a structured request.
//
// Only whitelisted function names and validated identifiers are written into
// the SQL text. Filter values are always returned as bound arguments.
package query

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"salesetl/internal/sales"
)

var (
	ErrInvalidAggregation = errors.New("invalid aggregation format")
	ErrInvalidFunction    = errors.New("invalid aggregation function")
	ErrNothingToSelect    = errors.New("no fields to select: provide aggregations or groupBy")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
)

var allowedFuncs = map[string]bool{
	"SUM":   true,
	"AVG":   true,
	"MIN":   true,
	"MAX":   true,
	"COUNT": true,
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Request is a structured query. Filters are equality predicates keyed by
// readable column name; Aggregations map an output alias to "FUNC(Column)".
type Request struct {
	Filters      map[string]string `json:"filters"`
	GroupBy      []string          `json:"groupBy"`
	Aggregations map[string]string `json:"aggregations"`
}

// Query is the rendered SQL text and its positional arguments.
type Query struct {
	SQL  string
	Args []any
}

// Placeholder renders the n-th (1-based) bind parameter.
type Placeholder func(n int) string

// Question renders every parameter as '?' (MySQL, SQLite).
func Question(int) string { return "?" }

// Dollar renders $1, $2, ... (PostgreSQL).
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// AtP renders @p1, @p2, ... (SQL Server).
func AtP(n int) string { return "@p" + strconv.Itoa(n) }

// PlaceholderFor returns the placeholder style of a storage kind.
func PlaceholderFor(kind string) (Placeholder, error) {
	switch strings.ToLower(kind) {
	case "mysql", "sqlite":
		return Question, nil
	case "postgres":
		return Dollar, nil
	case "mssql":
		return AtP, nil
	default:
		return nil, fmt.Errorf("query: no placeholder style for storage kind %q", kind)
	}
}

// Builder renders Requests against one table.
type Builder struct {
	// Table defaults to sales.DefaultTable.
	Table       string
	Placeholder Placeholder
}

// NormalizeColumn maps a readable column name to its table column. Unknown
// names are lowercased with spaces replaced by underscores.
func NormalizeColumn(name string) string {
	if c, ok := sales.ColumnFor[name]; ok {
		return c
	}
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// Build renders req.
//
// SELECT lists aggregations ordered by alias, then group-by columns in the
// given order. Filters are ANDed in key order.
func (b Builder) Build(req Request) (Query, error) {
	table := b.Table
	if table == "" {
		table = sales.DefaultTable
	}
	if !identRe.MatchString(table) {
		return Query{}, fmt.Errorf("query: table %q: %w", table, ErrInvalidIdentifier)
	}
	ph := b.Placeholder
	if ph == nil {
		ph = Question
	}

	var fields []string

	aliases := make([]string, 0, len(req.Aggregations))
	for a := range req.Aggregations {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		if !identRe.MatchString(alias) {
			return Query{}, fmt.Errorf("query: alias %q: %w", alias, ErrInvalidIdentifier)
		}
		expr, err := aggregation(req.Aggregations[alias])
		if err != nil {
			return Query{}, err
		}
		fields = append(fields, expr+" AS "+alias)
	}

	groupCols := make([]string, 0, len(req.GroupBy))
	for _, g := range req.GroupBy {
		col, err := column(g)
		if err != nil {
			return Query{}, err
		}
		groupCols = append(groupCols, col)
	}
	fields = append(fields, groupCols...)

	if len(fields) == 0 {
		return Query{}, fmt.Errorf("query: %w", ErrNothingToSelect)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(fields, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(table)

	var args []any
	if len(req.Filters) > 0 {
		keys := make([]string, 0, len(req.Filters))
		for k := range req.Filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		preds := make([]string, 0, len(keys))
		for _, k := range keys {
			col, err := column(k)
			if err != nil {
				return Query{}, err
			}
			args = append(args, req.Filters[k])
			preds = append(preds, col+" = "+ph(len(args)))
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(preds, " AND "))
	}

	if len(groupCols) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(groupCols, ", "))
	}

	return Query{SQL: sb.String(), Args: args}, nil
}

// aggregation validates "FUNC(Column)" and renders it with the function
// uppercased and the column normalized.
func aggregation(raw string) (string, error) {
	expr := strings.TrimSpace(raw)
	open := strings.Index(expr, "(")
	closing := strings.LastIndex(expr, ")")
	if open < 0 || closing < open {
		return "", fmt.Errorf("query: %w: %s", ErrInvalidAggregation, raw)
	}
	if strings.TrimSpace(expr[closing+1:]) != "" {
		return "", fmt.Errorf("query: %w: %s", ErrInvalidAggregation, raw)
	}

	fn := strings.ToUpper(strings.TrimSpace(expr[:open]))
	if !allowedFuncs[fn] {
		return "", fmt.Errorf("query: %w: %s", ErrInvalidFunction, fn)
	}

	arg := strings.TrimSpace(expr[open+1 : closing])
	if arg == "*" {
		if fn != "COUNT" {
			return "", fmt.Errorf("query: %s(*): %w", fn, ErrInvalidIdentifier)
		}
		return "COUNT(*)", nil
	}
	col, err := column(arg)
	if err != nil {
		return "", err
	}
	return fn + "(" + col + ")", nil
}

func column(name string) (string, error) {
	col := NormalizeColumn(strings.TrimSpace(name))
	if !identRe.MatchString(col) {
		return "", fmt.Errorf("query: column %q: %w", name, ErrInvalidIdentifier)
	}
	return col, nil
}
