// Package assistant turns natural-language questions about the retail
// dataset into reviewed, runnable PostgreSQL.
package assistant

import (
	"fmt"
	"regexp"
	"strings"

	"retailsync/pkg/errors"
)

// SchemaDescription is the database context handed to the model with every
// question. It describes the migrated retail schema, not the live catalog,
// so prompt content stays stable across environments.
const SchemaDescription = `Database Schema:

CORE TABLES:

- region (
    region_id INTEGER PRIMARY KEY,
    region TEXT NOT NULL
  )

- country (
    country_id INTEGER PRIMARY KEY,
    country TEXT NOT NULL,
    region_id INTEGER NOT NULL (FK to region.region_id)
  )

- customer (
    customer_id INTEGER PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    address TEXT NOT NULL,
    city TEXT NOT NULL,
    country_id INTEGER NOT NULL (FK to country.country_id)
  )

- product_category (
    product_category_id INTEGER PRIMARY KEY,
    product_category TEXT NOT NULL,
    product_category_description TEXT NOT NULL
  )

- product (
    product_id INTEGER PRIMARY KEY,
    product_name TEXT NOT NULL,
    product_unit_price NUMERIC(12,2) NOT NULL,
    product_category_id INTEGER NOT NULL (FK to product_category.product_category_id)
  )

- order_detail (
    order_id INTEGER PRIMARY KEY,
    customer_id INTEGER NOT NULL (FK to customer.customer_id),
    product_id INTEGER NOT NULL (FK to product.product_id),
    order_date DATE NOT NULL,
    quantity_ordered INTEGER NOT NULL
  )

IMPORTANT NOTES:
- Sales total per row: product.product_unit_price * order_detail.quantity_ordered
- Joins you will commonly need:
  order_detail -> customer -> country -> region
  order_detail -> product -> product_category
- order_date is DATE type
- For year/month/quarter:
  EXTRACT(YEAR FROM order_date), EXTRACT(MONTH FROM order_date), EXTRACT(QUARTER FROM order_date)
- Use ROUND(..., 2) for currency-style totals`

// Preset is a curated question for common reporting asks.
type Preset struct {
	Name     string
	Question string
}

// Presets lists the built-in questions, in menu order.
func Presets() []Preset {
	return []Preset{
		{Name: "revenue-by-region", Question: "Show total revenue by region, highest first, limit 10."},
		{Name: "top-customers", Question: "Who are the top 10 customers by total spend?"},
		{Name: "monthly-trend", Question: "Show total revenue by month for all years."},
		{Name: "top-products", Question: "List the top 10 products by revenue."},
		{Name: "revenue-by-category", Question: "Show total revenue by product category."},
		{Name: "recent-orders", Question: "Show the 50 most recent orders with customer and product details."},
	}
}

// FindPreset looks a preset up by name.
func FindPreset(name string) (Preset, error) {
	for _, p := range Presets() {
		if p.Name == name {
			return p, nil
		}
	}
	names := make([]string, 0, len(Presets()))
	for _, p := range Presets() {
		names = append(names, p.Name)
	}
	return Preset{}, errors.New(errors.ErrCodeUserInput,
		fmt.Sprintf("Unknown preset '%s'", name)).
		WithSuggestions(fmt.Sprintf("Available presets: %s", strings.Join(names, ", ")))
}

// BuildPrompt assembles the full instruction block for one question.
func BuildPrompt(question string) string {
	return fmt.Sprintf(`You are a PostgreSQL expert. Given the following database schema and a user's question, generate a valid PostgreSQL query.

%s

User Question: %s

Requirements:
1. Generate ONLY the SQL query that I can directly use. No other response.
2. Use proper JOINs when needed (region/country/customer/product/product_category).
3. Use appropriate aggregations (COUNT, AVG, SUM, etc.) when needed.
4. Add LIMIT clauses for queries that might return many rows (default LIMIT 100).
5. Use proper date/time functions for DATE columns (order_date).
6. Make sure the query is syntactically correct for PostgreSQL.
7. Add helpful column aliases using AS.
8. For revenue/sales totals, use product_unit_price * quantity_ordered and ROUND(..., 2).

Generate the SQL query:`, SchemaDescription, question)
}

var sqlFence = regexp.MustCompile(`(?im)^` + "```" + `sql\s*|\s*` + "```" + `$`)

// ExtractSQL strips a markdown SQL fence from a model response. Responses
// without a fence pass through trimmed.
func ExtractSQL(response string) string {
	return strings.TrimSpace(sqlFence.ReplaceAllString(response, ""))
}
