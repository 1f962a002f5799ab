package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/maurice-chat/maurice/pkg/core/session"
	"github.com/maurice-chat/maurice/pkg/gateway/apierror"
)

// SessionHandler serves GET and DELETE on /api/session/{id}.
type SessionHandler struct {
	Sessions *session.Store
	Logger   *slog.Logger
}

func (h SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, apierror.Validation("session id is required", "id"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		info, err := h.Sessions.Get(id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	case http.MethodDelete:
		if !h.Sessions.Delete(id) {
			writeError(w, r, session.ErrNotFound)
			return
		}
		if h.Logger != nil {
			h.Logger.Info("session deleted", "session_id", id)
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "session deleted", "session_id": id})
	default:
		methodNotAllowed(w, r)
	}
}
