package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createPayment = `
INSERT INTO payments (order_id, session_id, payment_method, amount)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, session_id, payment_method, amount, created_at
`

type CreatePaymentParams struct {
	OrderID       uuid.UUID
	SessionID     uuid.UUID
	PaymentMethod string
	Amount        pgtype.Numeric
}

// CreatePayment appends one immutable payment record.
func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	var p Payment
	err := q.db.QueryRow(ctx, createPayment,
		arg.OrderID, arg.SessionID, arg.PaymentMethod, arg.Amount).
		Scan(&p.ID, &p.OrderID, &p.SessionID, &p.PaymentMethod, &p.Amount, &p.CreatedAt)
	return p, err
}

const listPaymentsBySession = `
SELECT id, order_id, session_id, payment_method, amount, created_at
FROM payments WHERE session_id = $1
ORDER BY created_at
`

// ListPaymentsBySession returns all payments attributed to a session.
func (q *Queries) ListPaymentsBySession(ctx context.Context, sessionID uuid.UUID) ([]Payment, error) {
	return q.listPayments(ctx, listPaymentsBySession, sessionID)
}

const listPaymentsByOrder = `
SELECT id, order_id, session_id, payment_method, amount, created_at
FROM payments WHERE order_id = $1
ORDER BY created_at
`

// ListPaymentsByOrder returns all payments recorded against an order.
func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	return q.listPayments(ctx, listPaymentsByOrder, orderID)
}

func (q *Queries) listPayments(ctx context.Context, sql string, key uuid.UUID) ([]Payment, error) {
	rows, err := q.db.Query(ctx, sql, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.SessionID, &p.PaymentMethod, &p.Amount, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
