package postgres

import (
	"context"
	"fmt"

	"github.com/jinsharnammedia/commerce/internal/domain"
	"github.com/jinsharnammedia/commerce/pkg/database"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetActiveByIDs returns the active products among the given ids in a single
// batched query. Ids that are unknown or inactive are absent from the result;
// the caller decides whether that is an error.
func (r *ProductRepository) GetActiveByIDs(ctx context.Context, ids []string) (_ map[string]domain.Product, err error) {
	query := `
		SELECT id, name, unit_price, active
		FROM products
		WHERE id = ANY($1) AND active`

	ctx, end := database.TraceQuery(ctx, "GetActiveProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.UnitPrice, &p.Active); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}
