// Package store contains the hand-written pgx repositories backing the
// services: orders, products, blog posts, and admin users.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casafunko/api/internal/services/order"
)

// Orders is the Postgres implementation of order.Store.
type Orders struct {
	pool *pgxpool.Pool
}

// NewOrders creates the orders repository.
func NewOrders(pool *pgxpool.Pool) *Orders {
	return &Orders{pool: pool}
}

const orderColumns = `id, reference, items, total_amount, status,
	payment_id, preference_id, payment_status, customer,
	courier_id, courier_name, shipping_price, tracking_number,
	created_at, updated_at`

func scanOrder(row pgx.Row) (order.Order, error) {
	var (
		o              order.Order
		itemsJSON      []byte
		customerJSON   []byte
		status         string
		paymentID      *string
		preferenceID   *string
		paymentStatus  *string
		trackingNumber *string
	)
	err := row.Scan(
		&o.ID, &o.Reference, &itemsJSON, &o.TotalAmount, &status,
		&paymentID, &preferenceID, &paymentStatus, &customerJSON,
		&o.CourierID, &o.CourierName, &o.ShippingPrice, &trackingNumber,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}

	o.Status = order.Status(status)
	if paymentID != nil {
		o.PaymentID = *paymentID
	}
	if preferenceID != nil {
		o.PreferenceID = *preferenceID
	}
	if paymentStatus != nil {
		o.PaymentStatus = *paymentStatus
	}
	if trackingNumber != nil {
		o.TrackingNumber = *trackingNumber
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return order.Order{}, fmt.Errorf("decoding order items: %w", err)
	}
	if err := json.Unmarshal(customerJSON, &o.Customer); err != nil {
		return order.Order{}, fmt.Errorf("decoding order customer: %w", err)
	}
	return o, nil
}

// Insert persists a newly built order.
func (r *Orders) Insert(ctx context.Context, o order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encoding order items: %w", err)
	}
	customerJSON, err := json.Marshal(o.Customer)
	if err != nil {
		return fmt.Errorf("encoding order customer: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO orders (
			id, reference, items, total_amount, status, customer,
			courier_id, courier_name, shipping_price, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		o.ID, o.Reference, itemsJSON, o.TotalAmount, string(o.Status), customerJSON,
		o.CourierID, o.CourierName, o.ShippingPrice, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order %s: %w", o.Reference, err)
	}
	return nil
}

// GetByReference returns the order with the given checkout reference.
func (r *Orders) GetByReference(ctx context.Context, reference string) (order.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE reference = $1`, reference)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, fmt.Errorf("getting order by reference: %w", err)
	}
	return o, nil
}

// GetByPaymentID returns the order correlated with a provider payment id.
func (r *Orders) GetByPaymentID(ctx context.Context, paymentID string) (order.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_id = $1`, paymentID)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, fmt.Errorf("getting order by payment id: %w", err)
	}
	return o, nil
}

// List returns orders newest-first with an optional status filter (empty
// string means no filter) plus the total matching count.
func (r *Orders) List(ctx context.Context, status string, limit, offset int) ([]order.Order, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE ($1 = '' OR status = $1)`, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		status, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating order rows: %w", err)
	}
	return orders, total, nil
}

// SetPreferenceID records the provider preference id on an order.
func (r *Orders) SetPreferenceID(ctx context.Context, reference, preferenceID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET preference_id = $1, updated_at = $2 WHERE reference = $3`,
		preferenceID, time.Now().UTC(), reference,
	)
	if err != nil {
		return fmt.Errorf("setting preference id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// SetPaymentID records the provider payment id on an order.
func (r *Orders) SetPaymentID(ctx context.Context, reference, paymentID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_id = $1, updated_at = $2 WHERE reference = $3`,
		paymentID, time.Now().UTC(), reference,
	)
	if err != nil {
		return fmt.Errorf("setting payment id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// SetStatus overwrites an order's status and the raw provider status string.
func (r *Orders) SetStatus(ctx context.Context, id uuid.UUID, status order.Status, providerStatus string) error {
	var raw *string
	if providerStatus != "" {
		raw = &providerStatus
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1, payment_status = $2, updated_at = $3 WHERE id = $4`,
		string(status), raw, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// SetTracking records the tracking number and courier name on an order.
func (r *Orders) SetTracking(ctx context.Context, reference, trackingNumber, courier string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET tracking_number = $1,
		    courier_name = CASE WHEN $2 <> '' THEN $2 ELSE courier_name END,
		    updated_at = $3
		WHERE reference = $4`,
		trackingNumber, courier, time.Now().UTC(), reference,
	)
	if err != nil {
		return fmt.Errorf("setting order tracking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}
