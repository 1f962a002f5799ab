package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/maurice-chat/maurice/pkg/gateway/apierror"
	"github.com/maurice-chat/maurice/pkg/gateway/config"
)

// PlaceholderToken is issued when no signing secret is configured, for
// local development against clients that expect a token field.
const PlaceholderToken = "dev_token"

// ConnectHandler serves POST /connect: it mints a session ID and tells the
// client where the live channel lives.
type ConnectHandler struct {
	Config config.Config
	Logger *slog.Logger
}

type connectResponse struct {
	RoomURL   string            `json:"room_url"`
	WSURL     string            `json:"ws_url"`
	Token     string            `json:"token"`
	ConfigOpt []string          `json:"config"`
	Endpoints map[string]string `json:"endpoints"`
}

func (h ConnectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	sessionID := uuid.NewString()
	token, err := h.mintToken(sessionID)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("connect token mint failed", "error", err)
		}
		writeAPIError(w, r, &apierror.Error{
			Type:    apierror.ErrInternal,
			Message: "failed to issue token",
		}, http.StatusInternalServerError)
		return
	}

	httpScheme, wsScheme := schemesFor(r)
	base := httpScheme + "://" + r.Host

	writeJSON(w, http.StatusOK, connectResponse{
		RoomURL:   base,
		WSURL:     wsScheme + "://" + r.Host + "/connect?session_id=" + sessionID,
		Token:     token,
		ConfigOpt: []string{},
		Endpoints: map[string]string{
			"chat":    base + "/api/chat",
			"voice":   base + "/api/voice/send",
			"contact": base + "/api/contact",
			"health":  base + "/health",
		},
	})
}

func (h ConnectHandler) mintToken(sessionID string) (string, error) {
	secret := strings.TrimSpace(h.Config.ConnectTokenSecret)
	if secret == "" {
		return PlaceholderToken, nil
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(h.Config.ConnectTokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func schemesFor(r *http.Request) (httpScheme, wsScheme string) {
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return "https", "wss"
	}
	return "http", "ws"
}
