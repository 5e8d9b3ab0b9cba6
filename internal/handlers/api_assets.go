package handlers

import (
	"net/http"
	"strconv"

	"github.com/opsdeck/opsdeck/internal/api"
)

// handleAssets handles GET /api/assets
func (h *APIHandler) handleAssets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	assets, err := h.catalogService.ListAssets()
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to get assets")
		return
	}

	api.RespondJSON(w, http.StatusOK, assets)
}

// handleAssetByID handles GET /api/assets/{id}, returning the asset
// with its full component hierarchy.
func (h *APIHandler) handleAssetByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	idStr := extractPathParam(r.URL.Path, "/api/assets/")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		api.RespondError(w, http.StatusBadRequest, "Invalid asset ID")
		return
	}

	asset, err := h.catalogService.GetAssetWithHierarchy(uint(id))
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to get asset")
		return
	}
	if asset == nil {
		api.RespondError(w, http.StatusNotFound, "Asset not found")
		return
	}

	api.RespondJSON(w, http.StatusOK, asset)
}

// handleSymptomTags handles GET /api/symptom-tags
func (h *APIHandler) handleSymptomTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	tags, err := h.catalogService.ListSymptomTags()
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to get symptom tags")
		return
	}

	api.RespondJSON(w, http.StatusOK, tags)
}
