package handler

import (
	"errors"
	"net/http"

	"github.com/cyberelites/formmailer/internal/model"
	"github.com/cyberelites/formmailer/internal/trigger"
)

// RegisterTriggerRequest names the event source to bind
type RegisterTriggerRequest struct {
	Source string `json:"source"`
}

// RegisterTriggerResponse reports the registration outcome
type RegisterTriggerResponse struct {
	Source      string `json:"source"`
	HandlerName string `json:"handlerName"`
	Created     bool   `json:"created"`
}

// ListTriggersResponse lists registered triggers
type ListTriggersResponse struct {
	Triggers []model.Trigger `json:"triggers"`
}

// RegisterTrigger handles POST /api/v1/triggers
func (h *Handler) RegisterTrigger(w http.ResponseWriter, r *http.Request) {
	var req RegisterTriggerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	created, err := h.triggers.EnsureRegistered(r.Context(), req.Source)
	if err != nil {
		if errors.Is(err, trigger.ErrSourceRequired) {
			writeError(w, http.StatusBadRequest, "validation_error", "source is required")
			return
		}
		if errors.Is(err, trigger.ErrRegistrationPending) {
			writeError(w, http.StatusConflict, "registration_pending", "Trigger registration in progress, retry shortly")
			return
		}
		h.log.Error().Err(err).Str("source", req.Source).Msg("failed to register trigger")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to register trigger")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, RegisterTriggerResponse{
		Source:      req.Source,
		HandlerName: h.triggers.HandlerName(),
		Created:     created,
	})
}

// ListTriggers handles GET /api/v1/triggers
func (h *Handler) ListTriggers(w http.ResponseWriter, r *http.Request) {
	triggers, err := h.triggers.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list triggers")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list triggers")
		return
	}
	if triggers == nil {
		triggers = []model.Trigger{}
	}
	writeJSON(w, http.StatusOK, ListTriggersResponse{Triggers: triggers})
}
