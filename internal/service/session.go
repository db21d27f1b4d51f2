package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the session service.
var (
	ErrNegativeInitialAmount = errors.New("initial amount must be >= 0")
	ErrSessionAlreadyOpen    = errors.New("a cashier session is already open")
	ErrNoActiveSession       = errors.New("no cashier session is open")
)

// OpenTablesError blocks a register close while tables are occupied. An
// occupied table means an Open order whose value has not reached the drawer
// yet, so closing would reconcile against incomplete figures.
type OpenTablesError struct {
	Tables []string
}

func (e *OpenTablesError) Error() string {
	return "cannot close the register with occupied tables: " + strings.Join(e.Tables, ", ")
}

// SessionStore defines the DB methods needed by the session service.
// Satisfied by *database.Queries (and its WithTx variant).
type SessionStore interface {
	CreateSession(ctx context.Context, arg database.CreateSessionParams) (database.CashierSession, error)
	GetActiveSession(ctx context.Context) (database.CashierSession, error)
	GetActiveSessionForUpdate(ctx context.Context) (database.CashierSession, error)
	CloseSession(ctx context.Context, arg database.CloseSessionParams) (database.CashierSession, error)
	ListTablesByStatus(ctx context.Context, status string) ([]database.Table, error)
	ListPaymentsBySession(ctx context.Context, sessionID uuid.UUID) ([]database.Payment, error)
	ListCashFlowBySession(ctx context.Context, sessionID uuid.UUID) ([]database.CashFlowEntry, error)
}

// NewSessionStore creates a SessionStore from a DBTX (pool or tx).
type NewSessionStore func(db database.DBTX) SessionStore

// CashBreakdown is the reconciliation summary for one session.
// expected = initial + cash payments + income - expense.
type CashBreakdown struct {
	SessionID       uuid.UUID
	InitialAmount   decimal.Decimal
	PerMethodTotals map[string]decimal.Decimal
	TotalIncome     decimal.Decimal
	TotalExpense    decimal.Decimal
	ExpectedCash    decimal.Decimal
}

// ClosingReport is the result of closing a session.
type ClosingReport struct {
	Session   database.CashierSession
	Breakdown CashBreakdown
}

// SessionService owns the OPEN/CLOSED session lifecycle and the
// cash-reconciliation arithmetic.
type SessionService struct {
	store    SessionStore
	pool     TxBeginner
	newStore NewSessionStore
}

// NewSessionService creates a new SessionService.
func NewSessionService(store SessionStore, pool TxBeginner, newStore NewSessionStore) *SessionService {
	return &SessionService{store: store, pool: pool, newStore: newStore}
}

// Open starts a new cashier session with the given opening float.
func (s *SessionService) Open(ctx context.Context, initialAmount decimal.Decimal, openedBy uuid.UUID) (database.CashierSession, error) {
	if initialAmount.IsNegative() {
		return database.CashierSession{}, ErrNegativeInitialAmount
	}

	// Fast pre-check for a friendlier error. The partial unique index is the
	// real guard: two concurrent opens both passing this check cannot both
	// insert an OPEN row.
	if _, err := s.store.GetActiveSession(ctx); err == nil {
		return database.CashierSession{}, ErrSessionAlreadyOpen
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return database.CashierSession{}, fmt.Errorf("check active session: %w", err)
	}

	session, err := s.store.CreateSession(ctx, database.CreateSessionParams{
		OpenedBy:      pgtype.UUID{Bytes: openedBy, Valid: openedBy != uuid.Nil},
		InitialAmount: decimalToNumeric(initialAmount),
	})
	if err != nil {
		if isOpenSessionConflict(err) {
			return database.CashierSession{}, ErrSessionAlreadyOpen
		}
		return database.CashierSession{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// isOpenSessionConflict checks for a unique violation on the partial index
// that enforces the single-OPEN-session invariant (pgconn error code 23505).
func isOpenSessionConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "uq_cashier_sessions_open"
	}
	return false
}

// Active returns the open session, or nil when the register is closed.
func (s *SessionService) Active(ctx context.Context) (*database.CashierSession, error) {
	session, err := s.store.GetActiveSession(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return &session, nil
}

// ExpectedCash computes the reconciliation breakdown for the open session.
func (s *SessionService) ExpectedCash(ctx context.Context) (CashBreakdown, error) {
	session, err := s.store.GetActiveSession(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CashBreakdown{}, ErrNoActiveSession
		}
		return CashBreakdown{}, fmt.Errorf("get active session: %w", err)
	}
	return s.breakdownFor(ctx, s.store, session)
}

// Close validates that no table is occupied, computes expected cash, and
// moves the session to its terminal CLOSED state, all in one transaction.
func (s *SessionService) Close(ctx context.Context, countedCash decimal.Decimal, notes string) (*ClosingReport, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	session, err := store.GetActiveSessionForUpdate(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("get active session: %w", err)
	}

	occupied, err := store.ListTablesByStatus(ctx, enum.TableStatusOccupied)
	if err != nil {
		return nil, fmt.Errorf("list occupied tables: %w", err)
	}
	if len(occupied) > 0 {
		names := make([]string, len(occupied))
		for i, t := range occupied {
			names[i] = t.Name
		}
		return nil, &OpenTablesError{Tables: names}
	}

	breakdown, err := s.breakdownFor(ctx, store, session)
	if err != nil {
		return nil, err
	}

	difference := countedCash.Sub(breakdown.ExpectedCash)
	notesText := pgtype.Text{}
	if notes != "" {
		notesText = pgtype.Text{String: notes, Valid: true}
	}

	closed, err := store.CloseSession(ctx, database.CloseSessionParams{
		ID:           session.ID,
		ExpectedCash: decimalToNumeric(breakdown.ExpectedCash),
		CountedCash:  decimalToNumeric(countedCash),
		Difference:   decimalToNumeric(difference),
		Notes:        notesText,
	})
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &ClosingReport{Session: closed, Breakdown: breakdown}, nil
}

// breakdownFor loads a session's payments and cash-flow entries and folds
// them into the reconciliation summary.
func (s *SessionService) breakdownFor(ctx context.Context, store SessionStore, session database.CashierSession) (CashBreakdown, error) {
	payments, err := store.ListPaymentsBySession(ctx, session.ID)
	if err != nil {
		return CashBreakdown{}, fmt.Errorf("list session payments: %w", err)
	}
	entries, err := store.ListCashFlowBySession(ctx, session.ID)
	if err != nil {
		return CashBreakdown{}, fmt.Errorf("list session cash flow: %w", err)
	}
	return computeBreakdown(session, payments, entries), nil
}

// computeBreakdown is the pure reconciliation arithmetic. It is linear in its
// inputs and independent of their order.
func computeBreakdown(session database.CashierSession, payments []database.Payment, entries []database.CashFlowEntry) CashBreakdown {
	b := CashBreakdown{
		SessionID:       session.ID,
		InitialAmount:   numericToDecimal(session.InitialAmount),
		PerMethodTotals: make(map[string]decimal.Decimal),
		TotalIncome:     decimal.Zero,
		TotalExpense:    decimal.Zero,
	}

	cashTotal := decimal.Zero
	for _, p := range payments {
		method := strings.TrimSpace(p.PaymentMethod)
		amount := numericToDecimal(p.Amount)
		b.PerMethodTotals[method] = b.PerMethodTotals[method].Add(amount)
		if isCashMethod(method) {
			cashTotal = cashTotal.Add(amount)
		}
	}

	for _, e := range entries {
		amount := numericToDecimal(e.Amount)
		switch e.FlowType {
		case enum.CashFlowIncome:
			b.TotalIncome = b.TotalIncome.Add(amount)
		case enum.CashFlowExpense:
			b.TotalExpense = b.TotalExpense.Add(amount)
		}
	}

	b.ExpectedCash = b.InitialAmount.Add(cashTotal).Add(b.TotalIncome).Sub(b.TotalExpense)
	return b
}

// isCashMethod reports whether a payment method counts toward the drawer.
// Legacy records carry the cash label with inconsistent case and padding.
func isCashMethod(method string) bool {
	return strings.EqualFold(strings.TrimSpace(method), enum.PaymentMethodCash)
}
