package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const sessionColumns = `id, opened_by, open_timestamp, initial_amount, close_timestamp,
	expected_cash, counted_cash, difference, status, notes`

const createSession = `
INSERT INTO cashier_sessions (opened_by, initial_amount, status)
VALUES ($1, $2, 'OPEN')
RETURNING ` + sessionColumns

type CreateSessionParams struct {
	OpenedBy      pgtype.UUID
	InitialAmount pgtype.Numeric
}

// CreateSession opens a new cashier session. The partial unique index on
// status='OPEN' makes concurrent opens fail with a 23505 instead of leaving
// two sessions open.
func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (CashierSession, error) {
	row := q.db.QueryRow(ctx, createSession, arg.OpenedBy, arg.InitialAmount)
	return scanSession(row)
}

const getActiveSession = `
SELECT ` + sessionColumns + `
FROM cashier_sessions WHERE status = 'OPEN'
ORDER BY open_timestamp DESC
LIMIT 1
`

// GetActiveSession returns the open session, or pgx.ErrNoRows if the
// register is closed. Historical CLOSED sessions are ignored.
func (q *Queries) GetActiveSession(ctx context.Context) (CashierSession, error) {
	row := q.db.QueryRow(ctx, getActiveSession)
	return scanSession(row)
}

const getActiveSessionForUpdate = `
SELECT ` + sessionColumns + `
FROM cashier_sessions WHERE status = 'OPEN'
ORDER BY open_timestamp DESC
LIMIT 1
FOR UPDATE
`

// GetActiveSessionForUpdate locks the open session row so a close in flight
// serializes against concurrent closes and payment attribution.
func (q *Queries) GetActiveSessionForUpdate(ctx context.Context) (CashierSession, error) {
	row := q.db.QueryRow(ctx, getActiveSessionForUpdate)
	return scanSession(row)
}

const closeSession = `
UPDATE cashier_sessions
SET status = 'CLOSED',
    close_timestamp = now(),
    expected_cash = $2,
    counted_cash = $3,
    difference = $4,
    notes = $5
WHERE id = $1 AND status = 'OPEN'
RETURNING ` + sessionColumns

type CloseSessionParams struct {
	ID           uuid.UUID
	ExpectedCash pgtype.Numeric
	CountedCash  pgtype.Numeric
	Difference   pgtype.Numeric
	Notes        pgtype.Text
}

// CloseSession moves the open session to its terminal CLOSED state.
// Returns pgx.ErrNoRows if the session is missing or already closed.
func (q *Queries) CloseSession(ctx context.Context, arg CloseSessionParams) (CashierSession, error) {
	row := q.db.QueryRow(ctx, closeSession,
		arg.ID, arg.ExpectedCash, arg.CountedCash, arg.Difference, arg.Notes)
	return scanSession(row)
}

type sessionRow interface {
	Scan(dest ...any) error
}

func scanSession(row sessionRow) (CashierSession, error) {
	var s CashierSession
	err := row.Scan(&s.ID, &s.OpenedBy, &s.OpenTimestamp, &s.InitialAmount,
		&s.CloseTimestamp, &s.ExpectedCash, &s.CountedCash, &s.Difference,
		&s.Status, &s.Notes)
	return s, err
}
