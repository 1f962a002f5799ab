package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/maurice-chat/maurice/pkg/core/exchange"
	"github.com/maurice-chat/maurice/pkg/core/session"
	"github.com/maurice-chat/maurice/pkg/gateway/apierror"
	"github.com/maurice-chat/maurice/pkg/gateway/config"
	"github.com/maurice-chat/maurice/pkg/gateway/lifecycle"
	"github.com/maurice-chat/maurice/pkg/gateway/live/protocol"
	"github.com/maurice-chat/maurice/pkg/gateway/live/sessions"
)

// WSHandler serves the live chat channel on /connect. Each connection is
// bound to one session; utterances arrive as text or base64 audio frames
// and replies go back as transcript/response frames.
type WSHandler struct {
	Config       config.Config
	Exchanger    *exchange.Exchanger
	Logger       *slog.Logger
	Lifecycle    *lifecycle.Lifecycle
	LiveSessions *sessions.Tracker
}

func (h WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	if h.Lifecycle.IsDraining() {
		writeAPIError(w, r, &apierror.Error{
			Type:    apierror.ErrUpstream,
			Message: "service is draining",
		}, http.StatusServiceUnavailable)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return h.originAllowed(r) },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if h.Config.WSMaxMessageBytes > 0 {
		conn.SetReadLimit(h.Config.WSMaxMessageBytes)
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var writeMu sync.Mutex
	writeFrame := func(frame protocol.ServerFrame) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		if h.Config.WSWriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(h.Config.WSWriteTimeout))
		}
		return conn.WriteJSON(frame)
	}

	if err := writeFrame(protocol.Connected(sessionID)); err != nil {
		return
	}

	unregister := func() {}
	if h.LiveSessions != nil {
		unregister = h.LiveSessions.Register(sessionID, sessions.Handle{
			Cancel: func() {
				cancel()
				_ = conn.Close()
			},
			Notify: func(message string) error {
				return writeFrame(protocol.ErrorFrame(message))
			},
		})
	}
	defer unregister()

	if h.Logger != nil {
		h.Logger.Info("live connection opened", "session_id", sessionID, "request_id", requestIDFromContext(r.Context()))
	}

	var exchanges sync.WaitGroup
	defer exchanges.Wait()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Abandon any in-flight exchange; the busy flag releases
			// when the exchange unwinds.
			cancel()
			if h.Logger != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.Logger.Debug("live connection read ended", "session_id", sessionID, "error", err)
			}
			return
		}

		decoded, err := protocol.DecodeClientMessage(data)
		if err != nil {
			_ = writeFrame(protocol.ErrorFrame(err.Error()))
			continue
		}

		exchanges.Add(1)
		go func() {
			defer exchanges.Done()
			h.handleFrame(ctx, writeFrame, sessionID, decoded)
		}()
	}
}

func (h WSHandler) handleFrame(ctx context.Context, writeFrame func(protocol.ServerFrame) error, sessionID string, decoded any) {
	var (
		result *exchange.Result
		err    error
	)
	switch msg := decoded.(type) {
	case protocol.ClientText:
		result, err = h.Exchanger.Text(ctx, sessionID, msg.Message)
	case protocol.ClientAudio:
		var audio []byte
		audio, err = msg.Bytes()
		if err != nil {
			_ = writeFrame(protocol.ErrorFrame(err.Error()))
			return
		}
		result, err = h.Exchanger.Voice(ctx, sessionID, audio, msg.Format, false)
	default:
		return
	}

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, session.ErrBusy) {
			_ = writeFrame(protocol.ErrorFrame("already processing a message"))
			return
		}
		if h.Logger != nil {
			h.Logger.Error("live exchange failed", "session_id", sessionID, "error", err)
		}
		_ = writeFrame(protocol.ErrorFrame("internal error"))
		return
	}

	if result.Transcript != "" {
		if writeFrame(protocol.FinalTranscript(result.Transcript)) != nil {
			return
		}
	}
	_ = writeFrame(protocol.Response(result.Reply))
}

func (h WSHandler) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" || h.Config.CORSAllowAll {
		return true
	}
	_, ok := h.Config.CORSAllowedOrigins[origin]
	return ok
}
