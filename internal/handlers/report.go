package handlers

import (
	"log"
	"net/http"

	"github.com/opsdeck/opsdeck/internal/api"
	"github.com/opsdeck/opsdeck/internal/database"
	"github.com/opsdeck/opsdeck/internal/middleware"
	"github.com/opsdeck/opsdeck/internal/services"
)

// ReportHandler exposes the quick-report submission endpoint
type ReportHandler struct {
	coordinator *services.ResolutionCoordinator
}

// NewReportHandler creates a new report handler
func NewReportHandler(coordinator *services.ResolutionCoordinator) *ReportHandler {
	return &ReportHandler{coordinator: coordinator}
}

// SetupRoutes configures report routes
func (h *ReportHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/reports", h.handleSubmit)
}

// duplicatesResponse is returned when candidates were found and nothing
// was persisted; the caller must resubmit with forceCreate or
// linkToOccurrenceId.
type duplicatesResponse struct {
	HasDuplicates bool                          `json:"hasDuplicates"`
	Candidates    []services.DuplicateCandidate `json:"candidates"`
}

// linkedResponse is returned when the report was appended to an
// existing root occurrence.
type linkedResponse struct {
	WasLinkedToExisting  bool   `json:"wasLinkedToExisting"`
	LinkedToOccurrenceID string `json:"linkedToOccurrenceId"`
}

// createdResponse is returned when a new occurrence was committed.
type createdResponse struct {
	Occurrence          *database.Occurrence `json:"occurrence"`
	WorkOrder           *database.WorkOrder  `json:"workOrder,omitempty"`
	IsObservation       bool                 `json:"isObservation"`
	ResolvedImmediately bool                 `json:"resolvedImmediately"`
}

// handleSubmit handles POST /api/reports
func (h *ReportHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req services.SubmissionRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.coordinator.Submit(r.Context(), actorFromRequest(r), &req)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}

	switch {
	case result.HasDuplicates:
		api.RespondJSON(w, http.StatusOK, duplicatesResponse{
			HasDuplicates: true,
			Candidates:    result.Candidates,
		})
	case result.WasLinkedToExisting:
		api.RespondJSON(w, http.StatusOK, linkedResponse{
			WasLinkedToExisting:  true,
			LinkedToOccurrenceID: result.LinkedToOccurrenceUUID,
		})
	default:
		api.RespondJSON(w, http.StatusCreated, createdResponse{
			Occurrence:          result.Occurrence,
			WorkOrder:           result.WorkOrder,
			IsObservation:       result.IsObservation,
			ResolvedImmediately: result.ResolvedImmediately,
		})
	}
}

// actorFromRequest builds the workflow actor from the authenticated
// claims. Unauthenticated requests (auth disabled) act as anonymous
// with no capabilities.
func actorFromRequest(r *http.Request) services.Actor {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		return services.Actor{Username: "anonymous"}
	}
	return services.Actor{
		Username:     claims.Username,
		Role:         claims.Role,
		Capabilities: claims.Capabilities,
	}
}

// respondWorkflowError maps workflow errors onto HTTP statuses. Input
// errors are field-attributable; transient errors tell the client a
// plain retry is safe because nothing was persisted.
func respondWorkflowError(w http.ResponseWriter, err error) {
	we, ok := services.AsWorkflowError(err)
	if !ok {
		log.Printf("ReportHandler: unexpected error: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	switch we.Code {
	case services.CodeInvalidAsset, services.CodeInvalidTitle,
		services.CodeInvalidComponentScope, services.CodeInvalidSymptomTag,
		services.CodeInvalidResolution:
		api.RespondFieldError(w, http.StatusUnprocessableEntity, we.Code, we.Field, we.Message)
	case services.CodeCandidateNotFound, services.CodeConcurrentConflict:
		api.RespondErrorWithCode(w, http.StatusConflict, we.Code, we.Message)
	case services.CodeStorageUnavailable:
		api.RespondErrorWithCode(w, http.StatusServiceUnavailable, we.Code, we.Message)
	default:
		api.RespondErrorWithCode(w, http.StatusInternalServerError, we.Code, we.Message)
	}
}
