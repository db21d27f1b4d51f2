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
	"github.com/shopspring/decimal"
)

// Errors returned by the cash flow service.
var (
	ErrInvalidFlowType  = errors.New("invalid flow type")
	ErrInvalidAmount    = errors.New("amount must be a positive number")
	ErrEmptyDescription = errors.New("description is required")
)

// CashFlowStore defines the DB methods needed by the cash flow ledger.
type CashFlowStore interface {
	GetActiveSession(ctx context.Context) (database.CashierSession, error)
	CreateCashFlowEntry(ctx context.Context, arg database.CreateCashFlowEntryParams) (database.CashFlowEntry, error)
	ListCashFlowBySession(ctx context.Context, sessionID uuid.UUID) ([]database.CashFlowEntry, error)
}

// CashFlowService records manual income/expense movements against the open
// session.
type CashFlowService struct {
	store CashFlowStore
}

// NewCashFlowService creates a new CashFlowService.
func NewCashFlowService(store CashFlowStore) *CashFlowService {
	return &CashFlowService{store: store}
}

// Record validates and appends one income/expense entry to the open session.
func (s *CashFlowService) Record(ctx context.Context, flowType string, amount decimal.Decimal, description string) (database.CashFlowEntry, error) {
	if flowType != enum.CashFlowIncome && flowType != enum.CashFlowExpense {
		return database.CashFlowEntry{}, ErrInvalidFlowType
	}
	if !amount.IsPositive() {
		return database.CashFlowEntry{}, ErrInvalidAmount
	}
	if strings.TrimSpace(description) == "" {
		return database.CashFlowEntry{}, ErrEmptyDescription
	}

	session, err := s.store.GetActiveSession(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.CashFlowEntry{}, ErrNoActiveSession
		}
		return database.CashFlowEntry{}, fmt.Errorf("get active session: %w", err)
	}

	entry, err := s.store.CreateCashFlowEntry(ctx, database.CreateCashFlowEntryParams{
		SessionID:   session.ID,
		FlowType:    flowType,
		Amount:      decimalToNumeric(amount),
		Description: strings.TrimSpace(description),
	})
	if err != nil {
		return database.CashFlowEntry{}, fmt.Errorf("create cash flow entry: %w", err)
	}
	return entry, nil
}

// EntriesForActiveSession returns the open session's movements in creation
// order.
func (s *CashFlowService) EntriesForActiveSession(ctx context.Context) ([]database.CashFlowEntry, error) {
	session, err := s.store.GetActiveSession(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("get active session: %w", err)
	}
	entries, err := s.store.ListCashFlowBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list session cash flow: %w", err)
	}
	return entries, nil
}
