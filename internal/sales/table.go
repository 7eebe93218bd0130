package sales

import "salesetl/internal/ddl"

// DefaultTable is the name of the loaded table.
const DefaultTable = "sales"

// TableColumns lists the table columns in insert order.
var TableColumns = Table(DefaultTable).ColumnNames()

// ColumnFor maps the readable column names used in files and queries to
// table column names.
var ColumnFor = map[string]string{
	"Order ID":              "order_id",
	"Region":                "region",
	"Country":               "country",
	"Item Type":             "item_type",
	"Sales Channel":         "sales_channel",
	"Order Priority":        "order_priority",
	"Order Date":            "order_date",
	"Ship Date":             "ship_date",
	"Units Sold":            "units_sold",
	"Unit Price":            "unit_price",
	"Unit Cost":             "unit_cost",
	"Total Revenue":         "total_revenue",
	"Total Cost":            "total_cost",
	"Total Profit":          "total_profit",
	"Order Processing Time": "order_processing_time",
	"Gross Margin":          "gross_margin",
}

// Table returns the definition of the sales table under the given name.
func Table(name string) ddl.TableDef {
	return ddl.TableDef{
		FQN: name,
		Columns: []ddl.ColumnDef{
			{Name: "order_id", Kind: ddl.BigInt, PrimaryKey: true},
			{Name: "region", Kind: ddl.Varchar, Size: 64, Nullable: true},
			{Name: "country", Kind: ddl.Varchar, Size: 64, Nullable: true},
			{Name: "item_type", Kind: ddl.Varchar, Size: 64, Nullable: true},
			{Name: "sales_channel", Kind: ddl.Varchar, Size: 32, Nullable: true},
			{Name: "order_priority", Kind: ddl.Varchar, Size: 32, Nullable: true},
			{Name: "order_date", Kind: ddl.Varchar, Size: 32, Nullable: true},
			{Name: "ship_date", Kind: ddl.Varchar, Size: 32, Nullable: true},
			{Name: "units_sold", Kind: ddl.Int, Nullable: true},
			{Name: "unit_price", Kind: ddl.Double, Nullable: true},
			{Name: "unit_cost", Kind: ddl.Double, Nullable: true},
			{Name: "total_revenue", Kind: ddl.Double, Nullable: true},
			{Name: "total_cost", Kind: ddl.Double, Nullable: true},
			{Name: "total_profit", Kind: ddl.Double, Nullable: true},
			{Name: "order_processing_time", Kind: ddl.Int, Nullable: true},
			{Name: "gross_margin", Kind: ddl.Double, Nullable: true},
		},
	}
}
