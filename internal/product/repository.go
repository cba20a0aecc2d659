package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// pqCheckViolation is raised by the products.stock >= 0 constraint.
const pqCheckViolation = "23514"

type Repository interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*Product, error)
	DecrementStock(ctx context.Context, id string, quantity int) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetByIDs returns the products found, keyed by id. Missing ids are simply
// absent from the map.
func (r *repository) GetByIDs(ctx context.Context, ids []string) (map[string]*Product, error) {
	products := make(map[string]*Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, sku, price, stock, weight_kg
		FROM products
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &p.Stock, &p.WeightKg); err != nil {
			return nil, err
		}
		products[p.ID] = &p
	}

	return products, rows.Err()
}

// DecrementStock is a blind subtract. Only the table's CHECK constraint stops
// stock from going negative.
func (r *repository) DecrementStock(ctx context.Context, id string, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2
	`, quantity, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqCheckViolation {
			return fmt.Errorf("%w: product %s", ErrInsufficientStock, id)
		}
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}

	return nil
}
