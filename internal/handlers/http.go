package handlers

import (
	"net/http"

	"github.com/opsdeck/opsdeck/internal/api"
	"github.com/opsdeck/opsdeck/internal/database"
	"github.com/opsdeck/opsdeck/internal/events"
)

// HealthHandler serves liveness checks. The database ping makes the
// endpoint useful as a readiness probe too.
type HealthHandler struct {
	hub *events.Hub
}

func NewHealthHandler(hub *events.Hub) *HealthHandler {
	return &HealthHandler{hub: hub}
}

func (h *HealthHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	if h.hub != nil {
		mux.HandleFunc("/ws/events", h.hub.HandleWS)
	}
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	status := "ok"
	dbStatus := "ok"
	if db := database.GetDB(); db != nil {
		if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
			status = "degraded"
			dbStatus = "unreachable"
		}
	} else {
		status = "degraded"
		dbStatus = "not connected"
	}

	resp := map[string]interface{}{
		"status":   status,
		"database": dbStatus,
	}
	if h.hub != nil {
		resp["ws_clients"] = h.hub.ClientCount()
	}
	api.RespondJSON(w, http.StatusOK, resp)
}
