package handlers

import (
	"net/http"

	"github.com/opsdeck/opsdeck/internal/api"
	"github.com/opsdeck/opsdeck/internal/database"
)

// handleMatcherSettings handles GET and PUT /api/settings/matcher
func (h *APIHandler) handleMatcherSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := database.GetOrCreateMatcherSettings(h.db)
		if err != nil {
			api.RespondError(w, http.StatusInternalServerError, "Failed to get matcher settings")
			return
		}
		api.RespondJSON(w, http.StatusOK, settings)

	case http.MethodPut:
		current, err := database.GetOrCreateMatcherSettings(h.db)
		if err != nil {
			api.RespondError(w, http.StatusInternalServerError, "Failed to get matcher settings")
			return
		}

		var req database.MatcherSettings
		if err := api.DecodeJSON(r, &req); err != nil {
			api.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.TitleWeight < 0 || req.SymptomTagWeight < 0 || req.ComponentWeight < 0 {
			api.RespondError(w, http.StatusBadRequest, "Weights must be non-negative")
			return
		}
		if req.RecencyWindowDays < 1 {
			api.RespondError(w, http.StatusBadRequest, "Recency window must be at least one day")
			return
		}
		if req.RelevanceFloor < 0 || req.RelevanceFloor > 100 {
			api.RespondError(w, http.StatusBadRequest, "Relevance floor must be between 0 and 100")
			return
		}
		if req.MaxCandidates < 1 {
			api.RespondError(w, http.StatusBadRequest, "Max candidates must be at least 1")
			return
		}
		if req.CandidateTTLMinutes < 1 {
			api.RespondError(w, http.StatusBadRequest, "Candidate TTL must be at least one minute")
			return
		}

		req.ID = current.ID
		req.CreatedAt = current.CreatedAt
		if err := database.UpdateMatcherSettings(h.db, &req); err != nil {
			api.RespondError(w, http.StatusInternalServerError, "Failed to update matcher settings")
			return
		}
		api.RespondJSON(w, http.StatusOK, &req)

	default:
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSlackSettings handles GET and PUT /api/settings/slack. The bot
// token is never echoed back in full.
func (h *APIHandler) handleSlackSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := database.GetSlackSettings()
		if err != nil {
			api.RespondError(w, http.StatusInternalServerError, "Failed to get Slack settings")
			return
		}
		api.RespondJSON(w, http.StatusOK, maskSlackSettings(settings))

	case http.MethodPut:
		current, err := database.GetSlackSettings()
		if err != nil {
			api.RespondError(w, http.StatusInternalServerError, "Failed to get Slack settings")
			return
		}

		var req database.SlackSettings
		if err := api.DecodeJSON(r, &req); err != nil {
			api.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		current.DispatchChannel = req.DispatchChannel
		current.Enabled = req.Enabled
		if req.BotToken != "" {
			current.BotToken = req.BotToken
		}
		if err := database.UpdateSlackSettings(current); err != nil {
			api.RespondError(w, http.StatusInternalServerError, "Failed to update Slack settings")
			return
		}
		api.RespondJSON(w, http.StatusOK, maskSlackSettings(current))

	default:
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func maskSlackSettings(s *database.SlackSettings) map[string]interface{} {
	return map[string]interface{}{
		"id":               s.ID,
		"dispatch_channel": s.DispatchChannel,
		"enabled":          s.Enabled,
		"token_configured": s.BotToken != "",
	}
}
