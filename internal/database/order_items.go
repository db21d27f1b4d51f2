package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrderItem = `
INSERT INTO order_items (id, order_id, product_id, modifiers, quantity, final_price)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, product_id, modifiers, quantity, final_price
`

type CreateOrderItemParams struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ProductID  uuid.UUID
	Modifiers  pgtype.Text
	Quantity   int32
	FinalPrice pgtype.Numeric
}

// CreateOrderItem inserts one order line. The ID is caller-supplied so that
// re-saving an unchanged item set keeps stable item IDs.
func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.ID, arg.OrderID, arg.ProductID, arg.Modifiers, arg.Quantity, arg.FinalPrice).
		Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Modifiers, &it.Quantity, &it.FinalPrice)
	return it, err
}

const listOrderItems = `
SELECT id, order_id, product_id, modifiers, quantity, final_price
FROM order_items WHERE order_id = $1
ORDER BY id
`

// ListOrderItems returns every line of an order.
func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Modifiers, &it.Quantity, &it.FinalPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const deleteOrderItems = `
DELETE FROM order_items WHERE order_id = $1
`

// DeleteOrderItems removes every line of an order (used by replace-all saves
// and force-free).
func (q *Queries) DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItems, orderID)
	return err
}
