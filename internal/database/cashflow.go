package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createCashFlowEntry = `
INSERT INTO cash_flow (session_id, flow_type, amount, description)
VALUES ($1, $2, $3, $4)
RETURNING id, session_id, flow_type, amount, description, created_at
`

type CreateCashFlowEntryParams struct {
	SessionID   uuid.UUID
	FlowType    string
	Amount      pgtype.Numeric
	Description string
}

// CreateCashFlowEntry appends one immutable income/expense movement.
func (q *Queries) CreateCashFlowEntry(ctx context.Context, arg CreateCashFlowEntryParams) (CashFlowEntry, error) {
	var e CashFlowEntry
	err := q.db.QueryRow(ctx, createCashFlowEntry,
		arg.SessionID, arg.FlowType, arg.Amount, arg.Description).
		Scan(&e.ID, &e.SessionID, &e.FlowType, &e.Amount, &e.Description, &e.CreatedAt)
	return e, err
}

const listCashFlowBySession = `
SELECT id, session_id, flow_type, amount, description, created_at
FROM cash_flow WHERE session_id = $1
ORDER BY created_at
`

// ListCashFlowBySession returns a session's entries in creation order.
func (q *Queries) ListCashFlowBySession(ctx context.Context, sessionID uuid.UUID) ([]CashFlowEntry, error) {
	rows, err := q.db.Query(ctx, listCashFlowBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CashFlowEntry
	for rows.Next() {
		var e CashFlowEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.FlowType, &e.Amount, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
