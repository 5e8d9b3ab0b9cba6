package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/opsdeck/opsdeck/internal/api"
	"github.com/opsdeck/opsdeck/internal/database"
	"gorm.io/gorm"
)

// handleOccurrences handles GET /api/occurrences
func (h *APIHandler) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query := h.db.Order("last_reported_at DESC")
	countQuery := h.db.Model(&database.Occurrence{})

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
		countQuery = countQuery.Where("status = ?", status)
	}
	if assetID := r.URL.Query().Get("asset_id"); assetID != "" {
		query = query.Where("asset_id = ?", assetID)
		countQuery = countQuery.Where("asset_id = ?", assetID)
	}

	params := api.ParsePagination(r)

	var total int64
	countQuery.Count(&total)

	var occurrences []database.Occurrence
	if err := query.Offset(params.Offset()).Limit(params.PerPage).Find(&occurrences).Error; err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to get occurrences")
		return
	}

	api.RespondJSON(w, http.StatusOK, api.PaginatedResponse{
		Data: occurrences,
		Pagination: api.PaginationMeta{
			Page:       params.Page,
			PerPage:    params.PerPage,
			Total:      total,
			TotalPages: params.TotalPages(total),
		},
	})
}

// handleOccurrenceByUUID handles GET /api/occurrences/{uuid} and
// GET /api/occurrences/{uuid}/reports
func (h *APIHandler) handleOccurrenceByUUID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	uuid := extractPathParam(r.URL.Path, "/api/occurrences/")
	if uuid == "" {
		api.RespondError(w, http.StatusBadRequest, "Missing occurrence ID")
		return
	}

	var occ database.Occurrence
	err := h.db.Where("uuid = ?", uuid).First(&occ).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		api.RespondError(w, http.StatusNotFound, "Occurrence not found")
		return
	}
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to get occurrence")
		return
	}

	if strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/reports") {
		var reports []database.OccurrenceReport
		if err := h.db.Where("occurrence_id = ?", occ.ID).Order("reported_at ASC").Find(&reports).Error; err != nil {
			api.RespondError(w, http.StatusInternalServerError, "Failed to get reports")
			return
		}
		api.RespondJSON(w, http.StatusOK, reports)
		return
	}

	// Include the work order when one was dispatched
	var wo database.WorkOrder
	response := map[string]interface{}{"occurrence": occ}
	if err := h.db.Where("occurrence_id = ?", occ.ID).First(&wo).Error; err == nil {
		response["workOrder"] = wo
	}

	api.RespondJSON(w, http.StatusOK, response)
}
