package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServiceName is reported by the health probe.
const ServiceName = "maurice-backend"

type Config struct {
	Addr string

	// Upstream credentials. The Anthropic key is required; the Deepgram key
	// is optional and gates transcription/synthesis.
	AnthropicAPIKey string
	DeepgramAPIKey  string

	// Upstream overrides (tests and self-hosted gateways).
	AnthropicBaseURL string
	DeepgramBaseURL  string

	AnthropicModel     string
	AnthropicMaxTokens int

	// Conversation shape.
	SystemPrompt    string // empty = built-in Maurice prompt
	FallbackContact string // named in the apology reply
	HistoryLimit    int    // max turns sent upstream per exchange

	// Per-upstream call timeouts.
	STTTimeout time.Duration
	LLMTimeout time.Duration
	TTSTimeout time.Duration

	// CORS. Empty map plus wildcard=false disables cross-origin access;
	// the wildcard mirrors the permissive default of the web client setup.
	CORSAllowedOrigins map[string]struct{}
	CORSAllowAll       bool

	// Request/WS byte budgets.
	MaxBodyBytes      int64
	WSMaxMessageBytes int64
	WSWriteTimeout    time.Duration

	// Contact form. Enabled only when SMTP host and recipient are set.
	ContactRecipient string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SMTPFrom         string

	// /connect token. When the secret is empty a static placeholder token
	// is issued instead of a signed one.
	ConnectTokenSecret string
	ConnectTokenTTL    time.Duration

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("MAURICE_ADDR", ":7860"),
		AnthropicAPIKey:     strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		DeepgramAPIKey:      strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
		AnthropicBaseURL:    envOr("MAURICE_ANTHROPIC_BASE_URL", ""),
		DeepgramBaseURL:     envOr("MAURICE_DEEPGRAM_BASE_URL", ""),
		AnthropicModel:      envOr("MAURICE_ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		AnthropicMaxTokens:  envIntOr("MAURICE_ANTHROPIC_MAX_TOKENS", 1024),
		SystemPrompt:        os.Getenv("MAURICE_SYSTEM_PROMPT"),
		FallbackContact:     envOr("MAURICE_FALLBACK_CONTACT", "hello@maurice.chat"),
		HistoryLimit:        envIntOr("MAURICE_HISTORY_LIMIT", 40),
		STTTimeout:          envDurationOr("MAURICE_STT_TIMEOUT", 10*time.Second),
		LLMTimeout:          envDurationOr("MAURICE_LLM_TIMEOUT", 30*time.Second),
		TTSTimeout:          envDurationOr("MAURICE_TTS_TIMEOUT", 15*time.Second),
		CORSAllowedOrigins:  make(map[string]struct{}),
		MaxBodyBytes:        envInt64Or("MAURICE_MAX_BODY_BYTES", 8<<20), // 8 MiB
		WSMaxMessageBytes:   envInt64Or("MAURICE_WS_MAX_MESSAGE_BYTES", 8<<20),
		WSWriteTimeout:      envDurationOr("MAURICE_WS_WRITE_TIMEOUT", 5*time.Second),
		ContactRecipient:    envOr("MAURICE_CONTACT_RECIPIENT", ""),
		SMTPHost:            envOr("MAURICE_SMTP_HOST", ""),
		SMTPPort:            envIntOr("MAURICE_SMTP_PORT", 587),
		SMTPUsername:        envOr("MAURICE_SMTP_USERNAME", ""),
		SMTPPassword:        os.Getenv("MAURICE_SMTP_PASSWORD"),
		SMTPFrom:            envOr("MAURICE_SMTP_FROM", ""),
		ConnectTokenSecret:  os.Getenv("MAURICE_CONNECT_TOKEN_SECRET"),
		ConnectTokenTTL:     envDurationOr("MAURICE_CONNECT_TOKEN_TTL", 5*time.Minute),
		ReadHeaderTimeout:   envDurationOr("MAURICE_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:         envDurationOr("MAURICE_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod: envDurationOr("MAURICE_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	for _, origin := range splitCSV(envOr("MAURICE_CORS_ORIGINS", "*")) {
		if origin == "*" {
			cfg.CORSAllowAll = true
			continue
		}
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.AnthropicAPIKey == "" {
		return Config{}, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if cfg.AnthropicMaxTokens <= 0 {
		return Config{}, fmt.Errorf("MAURICE_ANTHROPIC_MAX_TOKENS must be > 0")
	}
	if cfg.HistoryLimit < 0 {
		return Config{}, fmt.Errorf("MAURICE_HISTORY_LIMIT must be >= 0")
	}
	if cfg.STTTimeout <= 0 || cfg.LLMTimeout <= 0 || cfg.TTSTimeout <= 0 {
		return Config{}, fmt.Errorf("upstream timeouts must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("MAURICE_MAX_BODY_BYTES must be > 0")
	}
	if cfg.WSMaxMessageBytes <= 0 {
		return Config{}, fmt.Errorf("MAURICE_WS_MAX_MESSAGE_BYTES must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("MAURICE_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.ContactEnabled() {
		if cfg.SMTPFrom == "" {
			return Config{}, fmt.Errorf("MAURICE_SMTP_FROM is required when the contact form is enabled")
		}
		if cfg.SMTPPort <= 0 {
			return Config{}, fmt.Errorf("MAURICE_SMTP_PORT must be > 0")
		}
	}
	if cfg.ConnectTokenTTL <= 0 {
		return Config{}, fmt.Errorf("MAURICE_CONNECT_TOKEN_TTL must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 || cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("timeouts must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("MAURICE_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

// ContactEnabled reports whether the contact-form relay is configured.
func (c Config) ContactEnabled() bool {
	return c.SMTPHost != "" && c.ContactRecipient != ""
}

// VoiceEnabled reports whether STT/TTS capabilities are configured.
func (c Config) VoiceEnabled() bool {
	return c.DeepgramAPIKey != ""
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
