package storage

import (
	"context"
	"fmt"

	"ricevute/internal/core"
)

// MerchantSummary reports receipts and spend per merchant, biggest spender
// first. Read-only.
func (r *SQLiteRepository) MerchantSummary(ctx context.Context) ([]core.MerchantSpend, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.merchant_name, COUNT(rc.receipt_id) AS num_receipts, SUM(rc.total) AS total_spent
		 FROM receipt rc
		 JOIN merchant m ON rc.merchant_id = m.merchant_id
		 GROUP BY m.merchant_name
		 ORDER BY total_spent DESC`)
	if err != nil {
		return nil, fmt.Errorf("query merchant summary: %w", err)
	}
	defer rows.Close()

	var summary []core.MerchantSpend
	for rows.Next() {
		var (
			s     core.MerchantSpend
			cents int64
		)
		if err := rows.Scan(&s.MerchantName, &s.Receipts, &cents); err != nil {
			return nil, fmt.Errorf("scan merchant summary row: %w", err)
		}
		s.TotalSpent = core.Money{Cents: cents}
		summary = append(summary, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merchant summary: %w", err)
	}
	return summary, nil
}

// TopProducts reports the most purchased products by line-item count,
// bounded to limit. Read-only.
func (r *SQLiteRepository) TopProducts(ctx context.Context, limit int) ([]core.ProductPurchases, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.product_description, COUNT(ri.receipt_item_id) AS purchases, SUM(ri.total_price) AS total_spent
		 FROM receipt_item ri
		 JOIN product p ON ri.product_id = p.product_id
		 GROUP BY p.product_description
		 ORDER BY purchases DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top products: %w", err)
	}
	defer rows.Close()

	var summary []core.ProductPurchases
	for rows.Next() {
		var (
			s     core.ProductPurchases
			cents int64
		)
		if err := rows.Scan(&s.ProductDescription, &s.Purchases, &cents); err != nil {
			return nil, fmt.Errorf("scan top products row: %w", err)
		}
		s.TotalSpent = core.Money{Cents: cents}
		summary = append(summary, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top products: %w", err)
	}
	return summary, nil
}
