package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/middleware"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionServicer defines the service methods needed by session handlers.
// Satisfied by *service.SessionService; narrow interface for testability.
type SessionServicer interface {
	Open(ctx context.Context, initialAmount decimal.Decimal, openedBy uuid.UUID) (database.CashierSession, error)
	Active(ctx context.Context) (*database.CashierSession, error)
	ExpectedCash(ctx context.Context) (service.CashBreakdown, error)
	Close(ctx context.Context, countedCash decimal.Decimal, notes string) (*service.ClosingReport, error)
}

// CashFlowServicer defines the service methods needed by cash flow handlers.
type CashFlowServicer interface {
	Record(ctx context.Context, flowType string, amount decimal.Decimal, description string) (database.CashFlowEntry, error)
	EntriesForActiveSession(ctx context.Context) ([]database.CashFlowEntry, error)
}

// SessionHandler handles the cashier session and cash flow endpoints.
type SessionHandler struct {
	sessions SessionServicer
	cashFlow CashFlowServicer
	hub      Broadcaster
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionServicer, cashFlow CashFlowServicer, hub Broadcaster) *SessionHandler {
	return &SessionHandler{sessions: sessions, cashFlow: cashFlow, hub: hub}
}

// RegisterRoutes registers cashier endpoints on the given Chi router.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/cashier/sessions", h.Open)
	r.Get("/cashier/sessions/active", h.Active)
	r.Post("/cashier/sessions/close", h.Close)
	r.Get("/cashier/expected-cash", h.ExpectedCash)
	r.Post("/cashier/cash-flow", h.RecordCashFlow)
	r.Get("/cashier/cash-flow", h.ListCashFlow)
}

// --- Request / Response types ---

type openSessionRequest struct {
	InitialAmount string `json:"initial_amount"`
}

type closeSessionRequest struct {
	CountedCash string `json:"counted_cash"`
	Notes       string `json:"notes"`
}

type cashFlowRequest struct {
	FlowType    string `json:"flow_type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type sessionResponse struct {
	ID             uuid.UUID  `json:"id"`
	OpenedBy       *uuid.UUID `json:"opened_by"`
	OpenTimestamp  time.Time  `json:"open_timestamp"`
	InitialAmount  string     `json:"initial_amount"`
	CloseTimestamp *time.Time `json:"close_timestamp"`
	ExpectedCash   string     `json:"expected_cash"`
	CountedCash    string     `json:"counted_cash"`
	Difference     string     `json:"difference"`
	Status         string     `json:"status"`
	Notes          *string    `json:"notes"`
}

type breakdownResponse struct {
	SessionID       uuid.UUID         `json:"session_id"`
	InitialAmount   string            `json:"initial_amount"`
	PerMethodTotals map[string]string `json:"per_method_totals"`
	TotalIncome     string            `json:"total_income"`
	TotalExpense    string            `json:"total_expense"`
	ExpectedCash    string            `json:"expected_cash"`
}

type closingReportResponse struct {
	Session   sessionResponse   `json:"session"`
	Breakdown breakdownResponse `json:"breakdown"`
}

type cashFlowResponse struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	FlowType    string    `json:"flow_type"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func toSessionResponse(session database.CashierSession) sessionResponse {
	return sessionResponse{
		ID:             session.ID,
		OpenedBy:       uuidPtr(session.OpenedBy),
		OpenTimestamp:  session.OpenTimestamp,
		InitialAmount:  numericString(session.InitialAmount),
		CloseTimestamp: timePtr(session.CloseTimestamp),
		ExpectedCash:   numericString(session.ExpectedCash),
		CountedCash:    numericString(session.CountedCash),
		Difference:     numericString(session.Difference),
		Status:         session.Status,
		Notes:          textPtr(session.Notes),
	}
}

func toBreakdownResponse(b service.CashBreakdown) breakdownResponse {
	perMethod := make(map[string]string, len(b.PerMethodTotals))
	for method, total := range b.PerMethodTotals {
		perMethod[method] = total.String()
	}
	return breakdownResponse{
		SessionID:       b.SessionID,
		InitialAmount:   b.InitialAmount.String(),
		PerMethodTotals: perMethod,
		TotalIncome:     b.TotalIncome.String(),
		TotalExpense:    b.TotalExpense.String(),
		ExpectedCash:    b.ExpectedCash.String(),
	}
}

func toCashFlowResponse(entry database.CashFlowEntry) cashFlowResponse {
	return cashFlowResponse{
		ID:          entry.ID,
		SessionID:   entry.SessionID,
		FlowType:    entry.FlowType,
		Amount:      numericString(entry.Amount),
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt,
	}
}

// --- Handlers ---

// Open handles POST /cashier/sessions.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	initial, err := decimal.NewFromString(req.InitialAmount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid initial_amount"})
		return
	}

	openedBy := uuid.Nil
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		openedBy = claims.UserID
	}

	session, err := h.sessions.Open(r.Context(), initial, openedBy)
	if err != nil {
		writeSessionError(w, "open session", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// Active handles GET /cashier/sessions/active. A closed register is a normal
// state, not an error: the response carries a null session.
func (h *SessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Active(r.Context())
	if err != nil {
		writeSessionError(w, "get active session", err)
		return
	}

	if session == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"session": nil})
		return
	}
	resp := toSessionResponse(*session)
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": resp})
}

// ExpectedCash handles GET /cashier/expected-cash.
func (h *SessionHandler) ExpectedCash(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.sessions.ExpectedCash(r.Context())
	if err != nil {
		writeSessionError(w, "expected cash", err)
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownResponse(breakdown))
}

// Close handles POST /cashier/sessions/close.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req closeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	counted, err := decimal.NewFromString(req.CountedCash)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid counted_cash"})
		return
	}

	report, err := h.sessions.Close(r.Context(), counted, req.Notes)
	if err != nil {
		writeSessionError(w, "close session", err)
		return
	}

	h.hub.Broadcast(ws.Event{Type: ws.EventTablesUpdated})
	writeJSON(w, http.StatusOK, closingReportResponse{
		Session:   toSessionResponse(report.Session),
		Breakdown: toBreakdownResponse(report.Breakdown),
	})
}

// RecordCashFlow handles POST /cashier/cash-flow.
func (h *SessionHandler) RecordCashFlow(w http.ResponseWriter, r *http.Request) {
	var req cashFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}

	entry, err := h.cashFlow.Record(r.Context(), req.FlowType, amount, req.Description)
	if err != nil {
		writeSessionError(w, "record cash flow", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCashFlowResponse(entry))
}

// ListCashFlow handles GET /cashier/cash-flow.
func (h *SessionHandler) ListCashFlow(w http.ResponseWriter, r *http.Request) {
	entries, err := h.cashFlow.EntriesForActiveSession(r.Context())
	if err != nil {
		writeSessionError(w, "list cash flow", err)
		return
	}

	resp := make([]cashFlowResponse, len(entries))
	for i, entry := range entries {
		resp[i] = toCashFlowResponse(entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Error mapping ---

// isSessionValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isSessionValidationError(err error) bool {
	return errors.Is(err, service.ErrNegativeInitialAmount) ||
		errors.Is(err, service.ErrInvalidFlowType) ||
		errors.Is(err, service.ErrInvalidAmount) ||
		errors.Is(err, service.ErrEmptyDescription)
}

// writeSessionError maps session/cash-flow service errors to HTTP status codes.
func writeSessionError(w http.ResponseWriter, op string, err error) {
	var openTables *service.OpenTablesError
	switch {
	case isSessionValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrSessionAlreadyOpen),
		errors.Is(err, service.ErrNoActiveSession),
		errors.As(err, &openTables):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
