// Package migration implements the one-shot copy of the normalized retail
// dataset from the SQLite source into the Postgres target.
package migration

import (
	"context"
	"database/sql"
	"time"
)

// Row is one record in transit, as an ordered tuple matching the column lists
// of its table spec.
type Row = []interface{}

// TransformFunc normalizes a fetched row before insertion. It must return
// exactly one output row per input row; a value it cannot coerce fails the
// whole batch.
type TransformFunc func(Row) (Row, error)

// TableSpec describes one source-to-target table copy.
type TableSpec struct {
	Source        string
	Target        string
	SourceColumns []string
	TargetColumns []string
	Transform     TransformFunc
}

// Source is the read side of a migration.
type Source interface {
	VerifyTables(ctx context.Context) error
	QueryTable(ctx context.Context, table string, columns []string) (*sql.Rows, error)
}

// Target is the write side of a migration.
type Target interface {
	ResetSchema(ctx context.Context) error
	InsertRows(ctx context.Context, table string, columns []string, rows []Row) error
}

// ProgressFunc observes rows copied so far for a table; called as each batch
// commits. Observability only, never control flow.
type ProgressFunc func(table string, copied int64)

// TableResult reports one completed table copy.
type TableResult struct {
	Table    string
	Rows     int64
	Duration time.Duration
}

// Summary reports a completed migration run.
type Summary struct {
	Tables    []TableResult
	TotalRows int64
	Duration  time.Duration
}

// DefaultBatchSize is the number of source rows fetched and committed per
// unit of work.
const DefaultBatchSize = 50000

// TableSpecs returns the six fixed table copies in dependency order: parents
// before children so foreign keys are satisfiable at insertion time.
func TableSpecs() []TableSpec {
	return []TableSpec{
		{
			Source:        "Region",
			Target:        "region",
			SourceColumns: []string{"RegionID", "Region"},
			TargetColumns: []string{"region_id", "region"},
		},
		{
			Source:        "Country",
			Target:        "country",
			SourceColumns: []string{"CountryID", "Country", "RegionID"},
			TargetColumns: []string{"country_id", "country", "region_id"},
		},
		{
			Source:        "Customer",
			Target:        "customer",
			SourceColumns: []string{"CustomerID", "FirstName", "LastName", "Address", "City", "CountryID"},
			TargetColumns: []string{"customer_id", "first_name", "last_name", "address", "city", "country_id"},
		},
		{
			Source:        "ProductCategory",
			Target:        "product_category",
			SourceColumns: []string{"ProductCategoryID", "ProductCategory", "ProductCategoryDescription"},
			TargetColumns: []string{"product_category_id", "product_category", "product_category_description"},
		},
		{
			Source:        "Product",
			Target:        "product",
			SourceColumns: []string{"ProductID", "ProductName", "ProductUnitPrice", "ProductCategoryID"},
			TargetColumns: []string{"product_id", "product_name", "product_unit_price", "product_category_id"},
			Transform:     TransformProduct,
		},
		{
			Source:        "OrderDetail",
			Target:        "order_detail",
			SourceColumns: []string{"OrderID", "CustomerID", "ProductID", "OrderDate", "QuantityOrdered"},
			TargetColumns: []string{"order_id", "customer_id", "product_id", "order_date", "quantity_ordered"},
			Transform:     TransformOrderDetail,
		},
	}
}
