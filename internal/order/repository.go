package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
	// UpdateStatus persists step only if the order is still in step.From.
	UpdateStatus(ctx context.Context, id string, step Step, paymentRef *string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, user_id, owner, customer_email, customer_name,
	subtotal, shipping_cost, tax_amount, discount_amount, total_amount, currency,
	status, payment_status, payment_reference,
	shipping_method, shipping_address, carrier, tracking_number, tracking_url, estimated_delivery,
	created_at, updated_at
`

func (r *repository) Create(ctx context.Context, o *Order) error {
	address, err := marshalAddress(o.ShippingAddress)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
	`,
		o.ID,
		o.UserID,
		o.Owner,
		o.CustomerEmail,
		o.CustomerName,
		o.Subtotal,
		o.ShippingCost,
		o.TaxAmount,
		o.DiscountAmount,
		o.TotalAmount,
		o.Currency,
		o.Status,
		o.PaymentStatus,
		o.PaymentReference,
		o.ShippingMethod,
		address,
		o.Carrier,
		o.TrackingNumber,
		o.TrackingURL,
		o.EstimatedDelivery,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, position, product_id, sku, name, quantity, unit_price
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			o.ID,
			i,
			item.ProductID,
			item.SKU,
			item.Name,
			item.Quantity,
			item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.fetchItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]

	return o, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	var (
		where []string
		args  []interface{}
	)

	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		orders []*Order
		ids    []string
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []*Order{}, nil
	}

	items, err := r.fetchItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Items = items[o.ID]
	}

	return orders, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, step Step, paymentRef *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
			payment_status = COALESCE(NULLIF($2, ''), payment_status),
			payment_reference = COALESCE($3, payment_reference),
			updated_at = NOW()
		WHERE id = $4 AND status = $5
	`, step.To, string(step.Payment), paymentRef, id, step.From)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConcurrentUpdate
	}

	return nil
}

func (r *repository) fetchItems(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, sku, name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string][]Item, len(orderIDs))
	for rows.Next() {
		var (
			orderID string
			it      Item
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.SKU, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		items[orderID] = append(items[orderID], it)
	}

	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(s scanner) (*Order, error) {
	var (
		o          Order
		paymentRef sql.NullString
		address    []byte
	)

	err := s.Scan(
		&o.ID, &o.UserID, &o.Owner, &o.CustomerEmail, &o.CustomerName,
		&o.Subtotal, &o.ShippingCost, &o.TaxAmount, &o.DiscountAmount, &o.TotalAmount, &o.Currency,
		&o.Status, &o.PaymentStatus, &paymentRef,
		&o.ShippingMethod, &address, &o.Carrier, &o.TrackingNumber, &o.TrackingURL, &o.EstimatedDelivery,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paymentRef.Valid {
		o.PaymentReference = &paymentRef.String
	}

	if len(address) > 0 {
		var a ShippingAddress
		if err := json.Unmarshal(address, &a); err != nil {
			return nil, fmt.Errorf("decode shipping address: %w", err)
		}
		o.ShippingAddress = &a
	}

	return &o, nil
}

func marshalAddress(a *ShippingAddress) (interface{}, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
