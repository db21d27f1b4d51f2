package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	GetOrCreate(ctx context.Context, tableID uuid.UUID) (*service.TableOrder, error)
	SaveItems(ctx context.Context, orderID uuid.UUID, items []service.ItemInput) ([]database.OrderItem, error)
	FinalizeAndPay(ctx context.Context, orderID uuid.UUID, payments []service.PaymentInput, totalAmount string) error
	ForceFree(ctx context.Context, tableID, orderID uuid.UUID) error
	ActiveOrders(ctx context.Context) ([]service.OrderSummary, error)
	PaidHistory(ctx context.Context) ([]service.PaidOrderSummary, error)
}

// Broadcaster pushes floor events to connected terminals.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(event ws.Event)
}

// OrderHandler handles the table/order lifecycle endpoints.
type OrderHandler struct {
	svc OrderServicer
	hub Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tables/{id}/order", h.SelectTable)
	r.Post("/tables/{id}/free", h.ForceFree)
	r.Put("/orders/{id}/items", h.SaveItems)
	r.Post("/orders/{id}/finalize", h.Finalize)
	r.Get("/orders/active", h.Active)
	r.Get("/orders/history", h.History)
}

// --- Request / Response types ---

type itemRequest struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Modifiers  string `json:"modifiers"`
	Quantity   int32  `json:"quantity"`
	FinalPrice string `json:"final_price"`
}

type saveItemsRequest struct {
	Items []itemRequest `json:"items"`
}

type paymentRequest struct {
	Method string `json:"method"`
	Amount string `json:"amount"`
}

type finalizeRequest struct {
	TotalAmount string           `json:"total_amount"`
	Payments    []paymentRequest `json:"payments"`
}

type forceFreeRequest struct {
	OrderID string `json:"order_id"`
}

type orderResponse struct {
	ID          uuid.UUID  `json:"id"`
	TableID     *uuid.UUID `json:"table_id"`
	Status      string     `json:"status"`
	TotalAmount string     `json:"total_amount"`
	CreatedAt   time.Time  `json:"created_at"`
}

type orderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	Modifiers  *string   `json:"modifiers"`
	Quantity   int32     `json:"quantity"`
	FinalPrice string    `json:"final_price"`
}

type tableOrderResponse struct {
	Order orderResponse       `json:"order"`
	Items []orderItemResponse `json:"items"`
}

type orderSummaryResponse struct {
	Order     orderResponse       `json:"order"`
	Items     []orderItemResponse `json:"items"`
	Total     string              `json:"total"`
	ItemCount int                 `json:"item_count"`
}

type paidOrderResponse struct {
	Order    orderResponse     `json:"order"`
	Payments []paymentResponse `json:"payments"`
}

type paymentResponse struct {
	ID            uuid.UUID  `json:"id"`
	OrderID       *uuid.UUID `json:"order_id"`
	SessionID     uuid.UUID  `json:"session_id"`
	PaymentMethod string     `json:"payment_method"`
	Amount        string     `json:"amount"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toOrderResponse(order database.Order) orderResponse {
	return orderResponse{
		ID:          order.ID,
		TableID:     uuidPtr(order.TableID),
		Status:      order.Status,
		TotalAmount: numericString(order.TotalAmount),
		CreatedAt:   order.CreatedAt,
	}
}

func toOrderItemResponses(items []database.OrderItem) []orderItemResponse {
	resp := make([]orderItemResponse, len(items))
	for i, it := range items {
		resp[i] = orderItemResponse{
			ID:         it.ID,
			ProductID:  it.ProductID,
			Modifiers:  textPtr(it.Modifiers),
			Quantity:   it.Quantity,
			FinalPrice: numericString(it.FinalPrice),
		}
	}
	return resp
}

func toPaymentResponses(payments []database.Payment) []paymentResponse {
	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = paymentResponse{
			ID:            p.ID,
			OrderID:       uuidPtr(p.OrderID),
			SessionID:     p.SessionID,
			PaymentMethod: p.PaymentMethod,
			Amount:        numericString(p.Amount),
			CreatedAt:     p.CreatedAt,
		}
	}
	return resp
}

// --- Handlers ---

// SelectTable handles POST /tables/{id}/order.
func (h *OrderHandler) SelectTable(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	result, err := h.svc.GetOrCreate(r.Context(), tableID)
	if err != nil {
		writeOrderError(w, "select table", err)
		return
	}

	h.hub.Broadcast(ws.Event{Type: ws.EventTablesUpdated})
	writeJSON(w, http.StatusOK, tableOrderResponse{
		Order: toOrderResponse(result.Order),
		Items: toOrderItemResponses(result.Items),
	})
}

// SaveItems handles PUT /orders/{id}/items.
func (h *OrderHandler) SaveItems(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req saveItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.ItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.ItemInput{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Modifiers:  item.Modifiers,
			Quantity:   item.Quantity,
			FinalPrice: item.FinalPrice,
		}
	}

	saved, err := h.svc.SaveItems(r.Context(), orderID, items)
	if err != nil {
		writeOrderError(w, "save items", err)
		return
	}

	h.hub.Broadcast(ws.Event{Type: ws.EventOrdersUpdated})
	writeJSON(w, http.StatusOK, toOrderItemResponses(saved))
}

// Finalize handles POST /orders/{id}/finalize.
func (h *OrderHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	payments := make([]service.PaymentInput, len(req.Payments))
	for i, p := range req.Payments {
		payments[i] = service.PaymentInput{Method: p.Method, Amount: p.Amount}
	}

	if err := h.svc.FinalizeAndPay(r.Context(), orderID, payments, req.TotalAmount); err != nil {
		writeOrderError(w, "finalize order", err)
		return
	}

	h.hub.Broadcast(ws.Event{Type: ws.EventTablesUpdated})
	h.hub.Broadcast(ws.Event{Type: ws.EventOrdersUpdated})
	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

// ForceFree handles POST /tables/{id}/free.
func (h *OrderHandler) ForceFree(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req forceFreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
		return
	}

	if err := h.svc.ForceFree(r.Context(), tableID, orderID); err != nil {
		writeOrderError(w, "force free table", err)
		return
	}

	h.hub.Broadcast(ws.Event{Type: ws.EventTablesUpdated})
	h.hub.Broadcast(ws.Event{Type: ws.EventOrdersUpdated})
	writeJSON(w, http.StatusOK, map[string]string{"status": "freed"})
}

// Active handles GET /orders/active.
func (h *OrderHandler) Active(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.ActiveOrders(r.Context())
	if err != nil {
		writeOrderError(w, "list active orders", err)
		return
	}

	resp := make([]orderSummaryResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = orderSummaryResponse{
			Order:     toOrderResponse(s.Order),
			Items:     toOrderItemResponses(s.Items),
			Total:     s.Total.String(),
			ItemCount: s.ItemCount,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// History handles GET /orders/history.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.PaidHistory(r.Context())
	if err != nil {
		writeOrderError(w, "list paid orders", err)
		return
	}

	resp := make([]paidOrderResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = paidOrderResponse{
			Order:    toOrderResponse(s.Order),
			Payments: toPaymentResponses(s.Payments),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Error mapping ---

// isOrderValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidProductID) ||
		errors.Is(err, service.ErrInvalidItemID) ||
		errors.Is(err, service.ErrInvalidPrice) ||
		errors.Is(err, service.ErrEmptyPayments) ||
		errors.Is(err, service.ErrEmptyPaymentMethod) ||
		errors.Is(err, service.ErrInvalidPaymentAmount) ||
		errors.Is(err, service.ErrInvalidTotalAmount)
}

// writeOrderError maps order service errors to HTTP status codes.
func writeOrderError(w http.ResponseWriter, op string, err error) {
	switch {
	case isOrderValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrTableNotFound), errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrRegisterClosed), errors.Is(err, service.ErrOrderAlreadyPaid):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
