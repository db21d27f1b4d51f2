package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `
INSERT INTO orders (table_id, status, total_amount)
VALUES ($1, $2, $3)
RETURNING id, created_at, table_id, status, total_amount
`

type CreateOrderParams struct {
	TableID     pgtype.UUID
	Status      string
	TotalAmount pgtype.Numeric
}

// CreateOrder inserts a new order header.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	var o Order
	err := q.db.QueryRow(ctx, createOrder, arg.TableID, arg.Status, arg.TotalAmount).
		Scan(&o.ID, &o.CreatedAt, &o.TableID, &o.Status, &o.TotalAmount)
	return o, err
}

const getOrder = `
SELECT id, created_at, table_id, status, total_amount FROM orders WHERE id = $1
`

// GetOrder returns a single order by ID.
func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	var o Order
	err := q.db.QueryRow(ctx, getOrder, id).
		Scan(&o.ID, &o.CreatedAt, &o.TableID, &o.Status, &o.TotalAmount)
	return o, err
}

const getOrderForUpdate = `
SELECT id, created_at, table_id, status, total_amount
FROM orders WHERE id = $1 FOR UPDATE
`

// GetOrderForUpdate locks the order row so item replacement and payment
// finalization cannot interleave across transactions.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	var o Order
	err := q.db.QueryRow(ctx, getOrderForUpdate, id).
		Scan(&o.ID, &o.CreatedAt, &o.TableID, &o.Status, &o.TotalAmount)
	return o, err
}

const getOpenOrderByTable = `
SELECT id, created_at, table_id, status, total_amount
FROM orders
WHERE table_id = $1 AND status = 'Open'
ORDER BY created_at DESC
LIMIT 1
`

// GetOpenOrderByTable returns the most recent Open order for a table.
func (q *Queries) GetOpenOrderByTable(ctx context.Context, tableID uuid.UUID) (Order, error) {
	var o Order
	err := q.db.QueryRow(ctx, getOpenOrderByTable, tableID).
		Scan(&o.ID, &o.CreatedAt, &o.TableID, &o.Status, &o.TotalAmount)
	return o, err
}

const markOrderPaid = `
UPDATE orders SET status = 'Paid', total_amount = $2
WHERE id = $1 AND status = 'Open'
RETURNING id, created_at, table_id, status, total_amount
`

type MarkOrderPaidParams struct {
	ID          uuid.UUID
	TotalAmount pgtype.Numeric
}

// MarkOrderPaid transitions an Open order to its terminal Paid state.
// Returns pgx.ErrNoRows if the order is missing or already Paid.
func (q *Queries) MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (Order, error) {
	var o Order
	err := q.db.QueryRow(ctx, markOrderPaid, arg.ID, arg.TotalAmount).
		Scan(&o.ID, &o.CreatedAt, &o.TableID, &o.Status, &o.TotalAmount)
	return o, err
}

const deleteOrder = `
DELETE FROM orders WHERE id = $1
`

// DeleteOrder removes an order header; items cascade.
func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrder, id)
	return err
}

const listOpenOrders = `
SELECT id, created_at, table_id, status, total_amount
FROM orders WHERE status = 'Open'
ORDER BY created_at
`

// ListOpenOrders returns every Open order, oldest first.
func (q *Queries) ListOpenOrders(ctx context.Context) ([]Order, error) {
	return q.listOrders(ctx, listOpenOrders)
}

const listPaidOrders = `
SELECT id, created_at, table_id, status, total_amount
FROM orders WHERE status = 'Paid'
ORDER BY created_at DESC
`

// ListPaidOrders returns every Paid order, newest first.
func (q *Queries) ListPaidOrders(ctx context.Context) ([]Order, error) {
	return q.listOrders(ctx, listPaidOrders)
}

func (q *Queries) listOrders(ctx context.Context, sql string) ([]Order, error) {
	rows, err := q.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CreatedAt, &o.TableID, &o.Status, &o.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}
