package handlers

import (
	"net/http"

	"github.com/maurice-chat/maurice/pkg/core/session"
	"github.com/maurice-chat/maurice/pkg/gateway/config"
	"github.com/maurice-chat/maurice/pkg/gateway/lifecycle"
)

// HealthHandler reports process health. It always answers 200 so load
// balancers can read the draining status instead of dropping the probe.
type HealthHandler struct {
	Sessions  *session.Store
	Lifecycle *lifecycle.Lifecycle
}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type healthResp struct {
		Status         string `json:"status"`
		Service        string `json:"service"`
		ActiveSessions int    `json:"active_sessions"`
	}

	active := 0
	if h.Sessions != nil {
		active = h.Sessions.Count()
	}

	writeJSON(w, http.StatusOK, healthResp{
		Status:         h.Lifecycle.Status(),
		Service:        config.ServiceName,
		ActiveSessions: active,
	})
}
