package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/comanda-pos/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CatalogStore defines the database methods needed by catalog handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CatalogStore interface {
	ListActiveProducts(ctx context.Context) ([]database.Product, error)
	ListModifiers(ctx context.Context) ([]database.Modifier, error)
	ListActivePaymentMethods(ctx context.Context) ([]database.PaymentMethod, error)
	ListTables(ctx context.Context) ([]database.Table, error)
	GetActiveSession(ctx context.Context) (database.CashierSession, error)
}

// CatalogHandler serves the menu reference data and the one-shot bootstrap
// payload the terminal loads on startup.
type CatalogHandler struct {
	store CatalogStore
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(store CatalogStore) *CatalogHandler {
	return &CatalogHandler{store: store}
}

// RegisterRoutes registers catalog endpoints on the given Chi router.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.Products)
	r.Get("/modifiers", h.Modifiers)
	r.Get("/payment-methods", h.PaymentMethods)
	r.Get("/bootstrap", h.Bootstrap)
}

// --- Response types ---

type productResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category *string   `json:"category"`
	Price    string    `json:"price"`
}

type modifierResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PriceDelta string    `json:"price_delta"`
}

type paymentMethodResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type bootstrapResponse struct {
	Tables         []tableResponse         `json:"tables"`
	Products       []productResponse       `json:"products"`
	Modifiers      []modifierResponse      `json:"modifiers"`
	PaymentMethods []paymentMethodResponse `json:"payment_methods"`
	ActiveSession  *sessionResponse        `json:"active_session"`
}

func toProductResponses(products []database.Product) []productResponse {
	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = productResponse{
			ID:       p.ID,
			Name:     p.Name,
			Category: textPtr(p.Category),
			Price:    numericString(p.Price),
		}
	}
	return resp
}

func toModifierResponses(modifiers []database.Modifier) []modifierResponse {
	resp := make([]modifierResponse, len(modifiers))
	for i, m := range modifiers {
		resp[i] = modifierResponse{
			ID:         m.ID,
			Name:       m.Name,
			PriceDelta: numericString(m.PriceDelta),
		}
	}
	return resp
}

func toPaymentMethodResponses(methods []database.PaymentMethod) []paymentMethodResponse {
	resp := make([]paymentMethodResponse, len(methods))
	for i, m := range methods {
		resp[i] = paymentMethodResponse{ID: m.ID, Name: m.Name}
	}
	return resp
}

// --- Handlers ---

// Products handles GET /products.
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListActiveProducts(r.Context())
	if err != nil {
		log.Printf("ERROR: list products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toProductResponses(products))
}

// Modifiers handles GET /modifiers.
func (h *CatalogHandler) Modifiers(w http.ResponseWriter, r *http.Request) {
	modifiers, err := h.store.ListModifiers(r.Context())
	if err != nil {
		log.Printf("ERROR: list modifiers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toModifierResponses(modifiers))
}

// PaymentMethods handles GET /payment-methods.
func (h *CatalogHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.store.ListActivePaymentMethods(r.Context())
	if err != nil {
		log.Printf("ERROR: list payment methods: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toPaymentMethodResponses(methods))
}

// Bootstrap handles GET /bootstrap: everything the terminal needs to render
// its first screen in a single round trip.
func (h *CatalogHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tables, err := h.store.ListTables(ctx)
	if err != nil {
		log.Printf("ERROR: bootstrap tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	products, err := h.store.ListActiveProducts(ctx)
	if err != nil {
		log.Printf("ERROR: bootstrap products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	modifiers, err := h.store.ListModifiers(ctx)
	if err != nil {
		log.Printf("ERROR: bootstrap modifiers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	methods, err := h.store.ListActivePaymentMethods(ctx)
	if err != nil {
		log.Printf("ERROR: bootstrap payment methods: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var activeSession *sessionResponse
	session, err := h.store.GetActiveSession(ctx)
	if err == nil {
		resp := toSessionResponse(session)
		activeSession = &resp
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("ERROR: bootstrap active session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, bootstrapResponse{
		Tables:         toTableResponses(tables),
		Products:       toProductResponses(products),
		Modifiers:      toModifierResponses(modifiers),
		PaymentMethods: toPaymentMethodResponses(methods),
		ActiveSession:  activeSession,
	})
}
