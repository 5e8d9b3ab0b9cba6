package handlers

import (
	"net/http"
	"strings"

	"github.com/opsdeck/opsdeck/internal/catalog"
	"github.com/opsdeck/opsdeck/internal/services"
	"gorm.io/gorm"
)

// APIHandler serves the management/read API around the intake workflow
type APIHandler struct {
	db               *gorm.DB
	catalogService   *catalog.Service
	workOrderService *services.WorkOrderService
	assignmentGate   *services.AssignmentGate
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(db *gorm.DB, catalogService *catalog.Service, workOrderService *services.WorkOrderService) *APIHandler {
	return &APIHandler{
		db:               db,
		catalogService:   catalogService,
		workOrderService: workOrderService,
		assignmentGate:   services.NewAssignmentGate(),
	}
}

// SetupRoutes configures all API routes
func (h *APIHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/occurrences", h.handleOccurrences)
	mux.HandleFunc("/api/occurrences/", h.handleOccurrenceByUUID)
	mux.HandleFunc("/api/workorders", h.handleWorkOrders)
	mux.HandleFunc("/api/workorders/", h.handleWorkOrderByUUID)
	mux.HandleFunc("/api/assets", h.handleAssets)
	mux.HandleFunc("/api/assets/", h.handleAssetByID)
	mux.HandleFunc("/api/symptom-tags", h.handleSymptomTags)
	mux.HandleFunc("/api/settings/matcher", h.handleMatcherSettings)
	mux.HandleFunc("/api/settings/slack", h.handleSlackSettings)
}

// extractPathParam extracts the first path segment after prefix
func extractPathParam(path, prefix string) string {
	param := strings.TrimPrefix(path, prefix)
	param = strings.TrimSuffix(param, "/")
	if idx := strings.Index(param, "/"); idx >= 0 {
		param = param[:idx]
	}
	return param
}
