package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/maurice-chat/maurice/pkg/core/mail"
	"github.com/maurice-chat/maurice/pkg/gateway/apierror"
	"github.com/maurice-chat/maurice/pkg/gateway/config"
)

// ContactHandler serves POST /api/contact: validate, sanitize, relay the
// submission to the site owner and confirm back to the submitter.
type ContactHandler struct {
	Config config.Config
	Mailer mail.Mailer
	Logger *slog.Logger
}

func (h ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	if h.Mailer == nil || !h.Config.ContactEnabled() {
		writeAPIError(w, r, &apierror.Error{
			Type:    apierror.ErrConfiguration,
			Message: "contact form is not configured",
		}, http.StatusServiceUnavailable)
		return
	}

	var submission mail.ContactSubmission
	body := http.MaxBytesReader(w, r.Body, h.Config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&submission); err != nil {
		writeError(w, r, apierror.Validation("invalid json body", ""))
		return
	}
	if err := submission.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	clean := submission.Sanitized()

	notification, err := mail.NotificationMessage(h.Config.ContactRecipient, clean)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Mailer.Send(r.Context(), notification); err != nil {
		if h.Logger != nil {
			h.Logger.Error("contact notification failed", "error", err, "request_id", requestIDFromContext(r.Context()))
		}
		writeAPIError(w, r, &apierror.Error{
			Type:    apierror.ErrUpstream,
			Message: "failed to deliver message",
		}, http.StatusBadGateway)
		return
	}

	// Confirmation is best effort; the submission already reached us.
	if confirmation, err := mail.ConfirmationMessage(clean); err == nil {
		if err := h.Mailer.Send(r.Context(), confirmation); err != nil && h.Logger != nil {
			h.Logger.Warn("contact confirmation failed", "error", err, "request_id", requestIDFromContext(r.Context()))
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
