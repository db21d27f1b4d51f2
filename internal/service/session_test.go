package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// mockSessionStore implements SessionStore with configurable behavior.
type mockSessionStore struct {
	createSessionFn             func(ctx context.Context, arg database.CreateSessionParams) (database.CashierSession, error)
	getActiveSessionFn          func(ctx context.Context) (database.CashierSession, error)
	getActiveSessionForUpdateFn func(ctx context.Context) (database.CashierSession, error)
	closeSessionFn              func(ctx context.Context, arg database.CloseSessionParams) (database.CashierSession, error)
	listTablesByStatusFn        func(ctx context.Context, status string) ([]database.Table, error)
	listPaymentsBySessionFn     func(ctx context.Context, sessionID uuid.UUID) ([]database.Payment, error)
	listCashFlowBySessionFn     func(ctx context.Context, sessionID uuid.UUID) ([]database.CashFlowEntry, error)
}

func (m *mockSessionStore) CreateSession(ctx context.Context, arg database.CreateSessionParams) (database.CashierSession, error) {
	return m.createSessionFn(ctx, arg)
}
func (m *mockSessionStore) GetActiveSession(ctx context.Context) (database.CashierSession, error) {
	return m.getActiveSessionFn(ctx)
}
func (m *mockSessionStore) GetActiveSessionForUpdate(ctx context.Context) (database.CashierSession, error) {
	return m.getActiveSessionForUpdateFn(ctx)
}
func (m *mockSessionStore) CloseSession(ctx context.Context, arg database.CloseSessionParams) (database.CashierSession, error) {
	return m.closeSessionFn(ctx, arg)
}
func (m *mockSessionStore) ListTablesByStatus(ctx context.Context, status string) ([]database.Table, error) {
	return m.listTablesByStatusFn(ctx, status)
}
func (m *mockSessionStore) ListPaymentsBySession(ctx context.Context, sessionID uuid.UUID) ([]database.Payment, error) {
	return m.listPaymentsBySessionFn(ctx, sessionID)
}
func (m *mockSessionStore) ListCashFlowBySession(ctx context.Context, sessionID uuid.UUID) ([]database.CashFlowEntry, error) {
	return m.listCashFlowBySessionFn(ctx, sessionID)
}

func newTestSessionService(store *mockSessionStore) (*SessionService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) SessionStore { return store }
	return NewSessionService(store, pool, newStore), tx
}

// closedRegisterStore has no open session and no occupied tables.
func closedRegisterStore() *mockSessionStore {
	return &mockSessionStore{
		createSessionFn: func(ctx context.Context, arg database.CreateSessionParams) (database.CashierSession, error) {
			return database.CashierSession{
				ID:            uuid.New(),
				OpenedBy:      arg.OpenedBy,
				InitialAmount: arg.InitialAmount,
				Status:        enum.SessionStatusOpen,
			}, nil
		},
		getActiveSessionFn: func(ctx context.Context) (database.CashierSession, error) {
			return database.CashierSession{}, pgx.ErrNoRows
		},
		getActiveSessionForUpdateFn: func(ctx context.Context) (database.CashierSession, error) {
			return database.CashierSession{}, pgx.ErrNoRows
		},
		closeSessionFn: func(ctx context.Context, arg database.CloseSessionParams) (database.CashierSession, error) {
			return database.CashierSession{
				ID:           arg.ID,
				ExpectedCash: arg.ExpectedCash,
				CountedCash:  arg.CountedCash,
				Difference:   arg.Difference,
				Notes:        arg.Notes,
				Status:       enum.SessionStatusClosed,
			}, nil
		},
		listTablesByStatusFn: func(ctx context.Context, status string) ([]database.Table, error) {
			return nil, nil
		},
		listPaymentsBySessionFn: func(ctx context.Context, sessionID uuid.UUID) ([]database.Payment, error) {
			return nil, nil
		},
		listCashFlowBySessionFn: func(ctx context.Context, sessionID uuid.UUID) ([]database.CashFlowEntry, error) {
			return nil, nil
		},
	}
}

// openRegisterStore has one open session with the given opening float.
func openRegisterStore(sessionID uuid.UUID, initial string) *mockSessionStore {
	store := closedRegisterStore()
	store.getActiveSessionFn = func(ctx context.Context) (database.CashierSession, error) {
		return openSession(sessionID, initial), nil
	}
	store.getActiveSessionForUpdateFn = store.getActiveSessionFn
	return store
}

// =====================
// Open tests
// =====================

func TestOpen_NegativeInitialAmount(t *testing.T) {
	svc, _ := newTestSessionService(closedRegisterStore())

	_, err := svc.Open(context.Background(), decimal.RequireFromString("-1"), uuid.New())
	if !errors.Is(err, ErrNegativeInitialAmount) {
		t.Fatalf("expected ErrNegativeInitialAmount, got %v", err)
	}
}

func TestOpen_AlreadyOpen(t *testing.T) {
	store := openRegisterStore(uuid.New(), "100.00")
	store.createSessionFn = func(ctx context.Context, arg database.CreateSessionParams) (database.CashierSession, error) {
		t.Fatal("must not insert a session while one is open")
		return database.CashierSession{}, nil
	}
	svc, _ := newTestSessionService(store)

	_, err := svc.Open(context.Background(), decimal.RequireFromString("50"), uuid.New())
	if !errors.Is(err, ErrSessionAlreadyOpen) {
		t.Fatalf("expected ErrSessionAlreadyOpen, got %v", err)
	}
}

func TestOpen_ConcurrentInsertConflict(t *testing.T) {
	// The pre-check passes but the partial unique index rejects the insert:
	// a second terminal opened the register in between.
	store := closedRegisterStore()
	store.createSessionFn = func(ctx context.Context, arg database.CreateSessionParams) (database.CashierSession, error) {
		return database.CashierSession{}, &pgconn.PgError{
			Code:           "23505",
			ConstraintName: "uq_cashier_sessions_open",
		}
	}
	svc, _ := newTestSessionService(store)

	_, err := svc.Open(context.Background(), decimal.RequireFromString("50"), uuid.New())
	if !errors.Is(err, ErrSessionAlreadyOpen) {
		t.Fatalf("expected ErrSessionAlreadyOpen, got %v", err)
	}
}

func TestOpen_Success(t *testing.T) {
	store := closedRegisterStore()
	var created *database.CreateSessionParams
	createFn := store.createSessionFn
	store.createSessionFn = func(ctx context.Context, arg database.CreateSessionParams) (database.CashierSession, error) {
		created = &arg
		return createFn(ctx, arg)
	}
	svc, _ := newTestSessionService(store)

	userID := uuid.New()
	session, err := svc.Open(context.Background(), decimal.RequireFromString("100.00"), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Status != enum.SessionStatusOpen {
		t.Errorf("status: got %q, want %q", session.Status, enum.SessionStatusOpen)
	}
	if created == nil || !numericEquals(created.InitialAmount, "100.00") {
		t.Errorf("initial amount not recorded: %+v", created)
	}
	if created.OpenedBy.Bytes != userID || !created.OpenedBy.Valid {
		t.Errorf("opened_by not recorded: %+v", created.OpenedBy)
	}
}

// =====================
// Active / ExpectedCash tests
// =====================

func TestActive_NoSession(t *testing.T) {
	svc, _ := newTestSessionService(closedRegisterStore())

	session, err := svc.Active(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session != nil {
		t.Errorf("expected nil session, got %+v", session)
	}
}

func TestExpectedCash_NoSession(t *testing.T) {
	svc, _ := newTestSessionService(closedRegisterStore())

	_, err := svc.ExpectedCash(context.Background())
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestExpectedCash_CountsOnlyCashPayments(t *testing.T) {
	sessionID := uuid.New()
	store := openRegisterStore(sessionID, "0")
	store.listPaymentsBySessionFn = func(ctx context.Context, sid uuid.UUID) ([]database.Payment, error) {
		return []database.Payment{
			{SessionID: sid, PaymentMethod: "Efectivo", Amount: makeNumeric("30.00")},
			{SessionID: sid, PaymentMethod: "Efectivo", Amount: makeNumeric("20.00")},
			{SessionID: sid, PaymentMethod: "Tarjeta", Amount: makeNumeric("15.00")},
		}, nil
	}
	svc, _ := newTestSessionService(store)

	breakdown, err := svc.ExpectedCash(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !breakdown.ExpectedCash.Equal(decimal.RequireFromString("50")) {
		t.Errorf("expected cash: got %s, want 50", breakdown.ExpectedCash)
	}
	if got := breakdown.PerMethodTotals["Efectivo"]; !got.Equal(decimal.RequireFromString("50")) {
		t.Errorf("Efectivo total: got %s, want 50", got)
	}
	if got := breakdown.PerMethodTotals["Tarjeta"]; !got.Equal(decimal.RequireFromString("15")) {
		t.Errorf("Tarjeta total: got %s, want 15", got)
	}
}

// =====================
// computeBreakdown tests
// =====================

func TestComputeBreakdown_FullFormula(t *testing.T) {
	session := openSession(uuid.New(), "100.00")
	payments := []database.Payment{
		{PaymentMethod: "Efectivo", Amount: makeNumeric("50.00")},
	}
	entries := []database.CashFlowEntry{
		{FlowType: enum.CashFlowExpense, Amount: makeNumeric("10.00")},
	}

	// 100 + 50 + 0 - 10 = 140
	b := computeBreakdown(session, payments, entries)
	if !b.ExpectedCash.Equal(decimal.RequireFromString("140")) {
		t.Errorf("expected cash: got %s, want 140", b.ExpectedCash)
	}
	if !b.TotalExpense.Equal(decimal.RequireFromString("10")) {
		t.Errorf("total expense: got %s, want 10", b.TotalExpense)
	}
}

func TestComputeBreakdown_CashLabelNormalization(t *testing.T) {
	session := openSession(uuid.New(), "0")
	payments := []database.Payment{
		{PaymentMethod: " efectivo ", Amount: makeNumeric("25.00")},
		{PaymentMethod: "EFECTIVO", Amount: makeNumeric("25.00")},
	}

	b := computeBreakdown(session, payments, nil)
	if !b.ExpectedCash.Equal(decimal.RequireFromString("50")) {
		t.Errorf("expected cash: got %s, want 50", b.ExpectedCash)
	}
}

func TestComputeBreakdown_OrderIndependent(t *testing.T) {
	session := openSession(uuid.New(), "10")
	payments := []database.Payment{
		{PaymentMethod: "Efectivo", Amount: makeNumeric("5.00")},
		{PaymentMethod: "Tarjeta", Amount: makeNumeric("7.50")},
		{PaymentMethod: "Efectivo", Amount: makeNumeric("2.50")},
	}
	entries := []database.CashFlowEntry{
		{FlowType: enum.CashFlowIncome, Amount: makeNumeric("3.00")},
		{FlowType: enum.CashFlowExpense, Amount: makeNumeric("1.00")},
	}

	forward := computeBreakdown(session, payments, entries)

	reversedPayments := []database.Payment{payments[2], payments[1], payments[0]}
	reversedEntries := []database.CashFlowEntry{entries[1], entries[0]}
	backward := computeBreakdown(session, reversedPayments, reversedEntries)

	if !forward.ExpectedCash.Equal(backward.ExpectedCash) {
		t.Errorf("expected cash depends on input order: %s vs %s", forward.ExpectedCash, backward.ExpectedCash)
	}
	if !forward.ExpectedCash.Equal(decimal.RequireFromString("19.50")) {
		t.Errorf("expected cash: got %s, want 19.50", forward.ExpectedCash)
	}
}

// =====================
// Close tests
// =====================

func TestClose_NoActiveSession(t *testing.T) {
	svc, _ := newTestSessionService(closedRegisterStore())

	_, err := svc.Close(context.Background(), decimal.RequireFromString("100"), "")
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestClose_BlockedByOccupiedTables(t *testing.T) {
	store := openRegisterStore(uuid.New(), "100.00")
	store.listTablesByStatusFn = func(ctx context.Context, status string) ([]database.Table, error) {
		if status != enum.TableStatusOccupied {
			t.Errorf("queried status %q, want %q", status, enum.TableStatusOccupied)
		}
		return []database.Table{{ID: uuid.New(), Name: "T2", Status: enum.TableStatusOccupied}}, nil
	}
	store.closeSessionFn = func(ctx context.Context, arg database.CloseSessionParams) (database.CashierSession, error) {
		t.Fatal("must not close the session while tables are occupied")
		return database.CashierSession{}, nil
	}

	svc, tx := newTestSessionService(store)
	_, err := svc.Close(context.Background(), decimal.RequireFromString("100"), "")

	var openTables *OpenTablesError
	if !errors.As(err, &openTables) {
		t.Fatalf("expected OpenTablesError, got %v", err)
	}
	if len(openTables.Tables) != 1 || openTables.Tables[0] != "T2" {
		t.Errorf("blocking tables: got %v, want [T2]", openTables.Tables)
	}
	if !strings.Contains(err.Error(), "T2") {
		t.Errorf("error message should name the table: %q", err.Error())
	}
	if tx.committed {
		t.Error("transaction must not commit on a blocked close")
	}
	if !tx.rolledBack {
		t.Error("transaction must roll back on a blocked close")
	}
}

func TestClose_ReconcilesAndCloses(t *testing.T) {
	sessionID := uuid.New()
	store := openRegisterStore(sessionID, "100.00")
	store.listPaymentsBySessionFn = func(ctx context.Context, sid uuid.UUID) ([]database.Payment, error) {
		return []database.Payment{
			{SessionID: sid, PaymentMethod: "Efectivo", Amount: makeNumeric("50.00")},
		}, nil
	}
	store.listCashFlowBySessionFn = func(ctx context.Context, sid uuid.UUID) ([]database.CashFlowEntry, error) {
		return []database.CashFlowEntry{
			{SessionID: sid, FlowType: enum.CashFlowExpense, Amount: makeNumeric("10.00")},
		}, nil
	}
	var closeArgs *database.CloseSessionParams
	closeFn := store.closeSessionFn
	store.closeSessionFn = func(ctx context.Context, arg database.CloseSessionParams) (database.CashierSession, error) {
		closeArgs = &arg
		return closeFn(ctx, arg)
	}

	svc, tx := newTestSessionService(store)
	report, err := svc.Close(context.Background(), decimal.RequireFromString("140.00"), "first shift")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if closeArgs == nil {
		t.Fatal("expected CloseSession to be called")
	}
	if closeArgs.ID != sessionID {
		t.Errorf("closed wrong session: %v", closeArgs.ID)
	}
	if !numericEquals(closeArgs.ExpectedCash, "140") {
		t.Errorf("expected cash: got %v, want 140", numericToDecimal(closeArgs.ExpectedCash))
	}
	if !numericEquals(closeArgs.Difference, "0") {
		t.Errorf("difference: got %v, want 0", numericToDecimal(closeArgs.Difference))
	}
	if !closeArgs.Notes.Valid || closeArgs.Notes.String != "first shift" {
		t.Errorf("notes: got %+v", closeArgs.Notes)
	}
	if report.Session.Status != enum.SessionStatusClosed {
		t.Errorf("status: got %q, want %q", report.Session.Status, enum.SessionStatusClosed)
	}
	if !report.Breakdown.ExpectedCash.Equal(decimal.RequireFromString("140")) {
		t.Errorf("report expected cash: got %s, want 140", report.Breakdown.ExpectedCash)
	}
	if !tx.committed {
		t.Error("expected transaction commit")
	}
}

func TestClose_RecordsShortfall(t *testing.T) {
	sessionID := uuid.New()
	store := openRegisterStore(sessionID, "100.00")
	var closeArgs *database.CloseSessionParams
	closeFn := store.closeSessionFn
	store.closeSessionFn = func(ctx context.Context, arg database.CloseSessionParams) (database.CashierSession, error) {
		closeArgs = &arg
		return closeFn(ctx, arg)
	}

	svc, _ := newTestSessionService(store)
	if _, err := svc.Close(context.Background(), decimal.RequireFromString("95.00"), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// counted 95 against an expected 100: the drawer is 5 short.
	if !numericEquals(closeArgs.Difference, "-5") {
		t.Errorf("difference: got %v, want -5", numericToDecimal(closeArgs.Difference))
	}
	if closeArgs.Notes.Valid {
		t.Errorf("empty notes must be stored as NULL: %+v", closeArgs.Notes)
	}
}
