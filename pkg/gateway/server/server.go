// Package server assembles the HTTP surface: routes, middleware chain, and
// the shared state handlers need.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/maurice-chat/maurice/pkg/core/exchange"
	"github.com/maurice-chat/maurice/pkg/core/mail"
	"github.com/maurice-chat/maurice/pkg/core/providers/anthropic"
	"github.com/maurice-chat/maurice/pkg/core/session"
	"github.com/maurice-chat/maurice/pkg/core/voice/stt"
	"github.com/maurice-chat/maurice/pkg/core/voice/tts"
	"github.com/maurice-chat/maurice/pkg/gateway/config"
	"github.com/maurice-chat/maurice/pkg/gateway/handlers"
	"github.com/maurice-chat/maurice/pkg/gateway/lifecycle"
	"github.com/maurice-chat/maurice/pkg/gateway/live/sessions"
	"github.com/maurice-chat/maurice/pkg/gateway/mw"
)

// Deps are the upstream capabilities the server exchanges against. Zero
// values are filled in from config; tests inject fakes.
type Deps struct {
	LLM    exchange.LLM
	STT    stt.Provider
	TTS    tts.Provider
	Mailer mail.Mailer
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	sessions     *session.Store
	exchanger    *exchange.Exchanger
	mailer       mail.Mailer
	lifecycle    *lifecycle.Lifecycle
	liveSessions *sessions.Tracker
}

func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	deps, err := defaultDeps(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithDeps(cfg, logger, deps), nil
}

func NewWithDeps(cfg config.Config, logger *slog.Logger, deps Deps) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	store := session.NewStore()
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
		sessions: store,
		exchanger: &exchange.Exchanger{
			Sessions:        store,
			STT:             deps.STT,
			LLM:             deps.LLM,
			TTS:             deps.TTS,
			SystemPrompt:    cfg.SystemPrompt,
			FallbackContact: cfg.FallbackContact,
			HistoryLimit:    cfg.HistoryLimit,
			STTTimeout:      cfg.STTTimeout,
			LLMTimeout:      cfg.LLMTimeout,
			TTSTimeout:      cfg.TTSTimeout,
			Logger:          logger,
		},
		mailer:       deps.Mailer,
		lifecycle:    &lifecycle.Lifecycle{},
		liveSessions: sessions.NewTracker(),
	}

	s.routes()
	return s
}

func defaultDeps(cfg config.Config) (Deps, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	llmOpts := []anthropic.Option{anthropic.WithHTTPClient(httpClient)}
	if cfg.AnthropicBaseURL != "" {
		llmOpts = append(llmOpts, anthropic.WithBaseURL(cfg.AnthropicBaseURL))
	}
	if cfg.AnthropicModel != "" {
		llmOpts = append(llmOpts, anthropic.WithModel(cfg.AnthropicModel))
	}
	if cfg.AnthropicMaxTokens > 0 {
		llmOpts = append(llmOpts, anthropic.WithMaxTokens(cfg.AnthropicMaxTokens))
	}

	deps := Deps{
		LLM: anthropic.New(cfg.AnthropicAPIKey, llmOpts...),
	}

	if cfg.VoiceEnabled() {
		deps.STT = stt.NewDeepgramWithClient(cfg.DeepgramAPIKey, cfg.DeepgramBaseURL, httpClient)
		deps.TTS = tts.NewDeepgramWithClient(cfg.DeepgramAPIKey, cfg.DeepgramBaseURL, httpClient)
	}

	if cfg.ContactEnabled() {
		mailer, err := mail.NewSMTP(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			return Deps{}, err
		}
		deps.Mailer = mailer
	}

	return deps, nil
}

func (s *Server) routes() {
	s.mux.Handle("/health", handlers.HealthHandler{
		Sessions:  s.sessions,
		Lifecycle: s.lifecycle,
	})

	s.mux.Handle("/api/chat", handlers.ChatHandler{
		Config:    s.cfg,
		Exchanger: s.exchanger,
		Logger:    s.logger,
	})
	s.mux.Handle("/api/voice/send", handlers.VoiceHandler{
		Config:    s.cfg,
		Exchanger: s.exchanger,
		Logger:    s.logger,
	})
	s.mux.Handle("/api/session/{id}", handlers.SessionHandler{
		Sessions: s.sessions,
		Logger:   s.logger,
	})
	s.mux.Handle("/api/contact", handlers.ContactHandler{
		Config: s.cfg,
		Mailer: s.mailer,
		Logger: s.logger,
	})

	s.mux.Handle("POST /connect", handlers.ConnectHandler{
		Config: s.cfg,
		Logger: s.logger,
	})
	s.mux.Handle("GET /connect", handlers.WSHandler{
		Config:       s.cfg,
		Exchanger:    s.exchanger,
		Logger:       s.logger,
		Lifecycle:    s.lifecycle,
		LiveSessions: s.liveSessions,
	})

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// Sessions exposes the session store, used by shutdown reporting.
func (s *Server) Sessions() *session.Store {
	return s.sessions
}

// SetDraining flips the health status ahead of shutdown.
func (s *Server) SetDraining(draining bool) {
	s.lifecycle.SetDraining(draining)
}

// NotifyLiveSessions warns every open live connection, best effort.
func (s *Server) NotifyLiveSessions(message string) int {
	return s.liveSessions.NotifyAll(message)
}

// WaitLiveSessions blocks until open live connections drain or ctx expires.
func (s *Server) WaitLiveSessions(ctx context.Context) bool {
	return s.liveSessions.Wait(ctx)
}

// CancelLiveSessions force-closes any remaining live connections.
func (s *Server) CancelLiveSessions() int {
	return s.liveSessions.CancelAll()
}
