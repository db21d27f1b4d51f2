package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/comanda-pos/api/internal/database"
	"github.com/go-chi/chi/v5"
)

// AdminStore defines the database methods needed by admin handlers.
type AdminStore interface {
	GetSystemStats(ctx context.Context) (database.SystemStats, error)
}

// AdminHandler serves the admin dashboard endpoints. The role check lives in
// the router.
type AdminHandler struct {
	store AdminStore
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store AdminStore) *AdminHandler {
	return &AdminHandler{store: store}
}

// RegisterRoutes registers admin endpoints on the given Chi router.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/stats", h.Stats)
}

// --- Response types ---

type statsResponse struct {
	TotalUsers    int64 `json:"total_users"`
	ActiveUsers   int64 `json:"active_users"`
	TotalProducts int64 `json:"total_products"`
	TotalTables   int64 `json:"total_tables"`
	TotalOrders   int64 `json:"total_orders"`
	TotalSessions int64 `json:"total_sessions"`
}

// --- Handlers ---

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetSystemStats(r.Context())
	if err != nil {
		log.Printf("ERROR: system stats: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalUsers:    stats.TotalUsers,
		ActiveUsers:   stats.ActiveUsers,
		TotalProducts: stats.TotalProducts,
		TotalTables:   stats.TotalTables,
		TotalOrders:   stats.TotalOrders,
		TotalSessions: stats.TotalSessions,
	})
}
