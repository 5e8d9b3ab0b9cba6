package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/opsdeck/opsdeck/internal/api"
	"github.com/opsdeck/opsdeck/internal/database"
	"gorm.io/gorm"
)

// handleWorkOrders handles GET /api/workorders
func (h *APIHandler) handleWorkOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	status := database.WorkOrderStatus(r.URL.Query().Get("status"))
	orders, err := h.workOrderService.List(status)
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to get work orders")
		return
	}

	api.RespondJSON(w, http.StatusOK, orders)
}

// AssignRequest is the body of an assignment request
type AssignRequest struct {
	Assignee string `json:"assignee"`
}

// handleWorkOrderByUUID handles:
//
//	GET  /api/workorders/{uuid}
//	POST /api/workorders/{uuid}/assign
//	POST /api/workorders/{uuid}/complete
func (h *APIHandler) handleWorkOrderByUUID(w http.ResponseWriter, r *http.Request) {
	uuid := extractPathParam(r.URL.Path, "/api/workorders/")
	if uuid == "" {
		api.RespondError(w, http.StatusBadRequest, "Missing work order ID")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case strings.HasSuffix(path, "/assign"):
		h.handleAssign(w, r, uuid)
	case strings.HasSuffix(path, "/complete"):
		h.handleComplete(w, r, uuid)
	default:
		h.handleGetWorkOrder(w, r, uuid)
	}
}

func (h *APIHandler) handleGetWorkOrder(w http.ResponseWriter, r *http.Request, uuid string) {
	if r.Method != http.MethodGet {
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	wo, err := h.workOrderService.GetByUUID(uuid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		api.RespondError(w, http.StatusNotFound, "Work order not found")
		return
	}
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to get work order")
		return
	}

	api.RespondJSON(w, http.StatusOK, wo)
}

// handleAssign assigns a technician. The assignment capability check
// gates the write; holding a supervisory role also passes.
func (h *APIHandler) handleAssign(w http.ResponseWriter, r *http.Request, uuid string) {
	if r.Method != http.MethodPost {
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	actor := actorFromRequest(r)
	if !h.assignmentGate.MayAutoAssign(actor) {
		log.Printf("APIHandler: user '%s' (role: %s) denied work order assignment", actor.Username, actor.Role)
		api.RespondError(w, http.StatusForbidden, "Not allowed to assign work orders")
		return
	}

	var req AssignRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Assignee) == "" {
		api.RespondError(w, http.StatusBadRequest, "Assignee is required")
		return
	}

	wo, err := h.workOrderService.Assign(uuid, strings.TrimSpace(req.Assignee), actor.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		api.RespondError(w, http.StatusNotFound, "Work order not found")
		return
	}
	if err != nil {
		api.RespondError(w, http.StatusConflict, err.Error())
		return
	}

	api.RespondJSON(w, http.StatusOK, wo)
}

// handleComplete marks the work order completed; its occurrence closes
// in the same transaction.
func (h *APIHandler) handleComplete(w http.ResponseWriter, r *http.Request, uuid string) {
	if r.Method != http.MethodPost {
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	wo, err := h.workOrderService.Complete(uuid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		api.RespondError(w, http.StatusNotFound, "Work order not found")
		return
	}
	if err != nil {
		api.RespondError(w, http.StatusConflict, err.Error())
		return
	}

	api.RespondJSON(w, http.StatusOK, wo)
}
