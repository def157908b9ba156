package handler

import (
	"net/http"
	"time"

	"github.com/cyberelites/formmailer/internal/middleware"
	"github.com/cyberelites/formmailer/internal/model"
)

// SubmissionRequest is the webhook body for one form response
type SubmissionRequest struct {
	// Values are the response fields in form order: timestamp, email, full name, ...
	Values []string `json:"values"`
}

// SubmissionResponse reports the dispatch outcome
type SubmissionResponse struct {
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// SubmitForm handles POST /api/v1/sources/{source}/submissions
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	source := r.PathValue("source")

	bound, err := h.triggers.IsBound(ctx, source)
	if err != nil {
		h.log.Error().Err(err).Str("source", source).Msg("failed to look up trigger")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to look up trigger")
		return
	}
	if !bound {
		writeError(w, http.StatusNotFound, "trigger_not_found", "No form submit trigger is registered for this source")
		return
	}

	var req SubmissionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	sub := model.FormSubmission{
		Source:     source,
		Values:     req.Values,
		ReceivedAt: time.Now(),
	}

	result, err := h.dispatcher.Handle(ctx, sub)
	if err != nil {
		h.log.Error().
			Err(err).
			Str("source", source).
			Str("client_ip", middleware.IPKey(r)).
			Msg("submission could not be logged")
		writeError(w, http.StatusInternalServerError, "error_log_failed", "The submission failed and could not be logged")
		return
	}

	if result.Sent {
		writeJSON(w, http.StatusOK, SubmissionResponse{Status: "sent"})
		return
	}

	resp := SubmissionResponse{Status: "logged"}
	if result.Failure != nil {
		resp.Kind = string(result.Failure.Kind)
		resp.Reason = result.Failure.Error()
	}
	writeJSON(w, http.StatusAccepted, resp)
}
