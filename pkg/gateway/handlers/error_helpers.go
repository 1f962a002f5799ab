package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/maurice-chat/maurice/pkg/gateway/apierror"
	"github.com/maurice-chat/maurice/pkg/gateway/mw"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := requestIDFromContext(r.Context())
	apiErr, status := apierror.FromError(err, reqID)
	writeJSON(w, status, apierror.Envelope{Error: apiErr})
}

func writeAPIError(w http.ResponseWriter, r *http.Request, apiErr *apierror.Error, status int) {
	if apiErr != nil && apiErr.RequestID == "" {
		apiErr.RequestID = requestIDFromContext(r.Context())
	}
	writeJSON(w, status, apierror.Envelope{Error: apiErr})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeAPIError(w, r, &apierror.Error{
		Type:    apierror.ErrValidation,
		Message: "method not allowed",
	}, http.StatusMethodNotAllowed)
}

func requestIDFromContext(ctx context.Context) string {
	if id, ok := mw.RequestIDFrom(ctx); ok {
		return id
	}
	return ""
}
