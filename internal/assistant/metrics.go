package assistant

import (
	"context"
	"database/sql"

	"retailsync/pkg/errors"
)

// Metrics are the headline figures for the migrated dataset.
type Metrics struct {
	Orders    int64
	Customers int64
	Products  int64
	Revenue   float64
}

const revenueQuery = `SELECT COALESCE(ROUND(SUM(p.product_unit_price * od.quantity_ordered), 2), 0) AS revenue
FROM order_detail od
JOIN product p ON p.product_id = od.product_id`

// FetchMetrics reads the headline counts and total revenue from the target.
func FetchMetrics(ctx context.Context, db *sql.DB) (*Metrics, error) {
	m := &Metrics{}

	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) AS orders FROM order_detail", &m.Orders},
		{"SELECT COUNT(*) AS customers FROM customer", &m.Customers},
		{"SELECT COUNT(*) AS products FROM product", &m.Products},
	}
	for _, c := range counts {
		if err := db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, errors.SQLError("Failed to fetch dataset metrics", c.query, err)
		}
	}

	if err := db.QueryRowContext(ctx, revenueQuery).Scan(&m.Revenue); err != nil {
		return nil, errors.SQLError("Failed to fetch total revenue", revenueQuery, err)
	}
	return m, nil
}
