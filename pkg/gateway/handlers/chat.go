package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maurice-chat/maurice/pkg/core/exchange"
	"github.com/maurice-chat/maurice/pkg/gateway/apierror"
	"github.com/maurice-chat/maurice/pkg/gateway/config"
)

// ChatHandler handles POST /api/chat text exchanges.
type ChatHandler struct {
	Config    config.Config
	Exchanger *exchange.Exchanger
	Logger    *slog.Logger
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

func (h ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, h.Config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, r, apierror.Validation("invalid json body", ""))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, r, apierror.Validation("message is required", "message"))
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := h.Exchanger.Text(r.Context(), sessionID, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  result.Reply,
		SessionID: sessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
