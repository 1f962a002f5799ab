package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":7860", cfg.Addr)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.AnthropicModel)
	assert.Equal(t, 10*time.Second, cfg.STTTimeout)
	assert.Equal(t, 40, cfg.HistoryLimit)
	assert.True(t, cfg.CORSAllowAll)
	assert.False(t, cfg.ContactEnabled())
	assert.False(t, cfg.VoiceEnabled())
}

func TestLoadFromEnv_MissingAnthropicKeyFailsFast(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("DEEPGRAM_API_KEY", "dg-test")
	t.Setenv("MAURICE_ADDR", ":9000")
	t.Setenv("MAURICE_CORS_ORIGINS", "https://maurice.chat, https://staging.maurice.chat")
	t.Setenv("MAURICE_STT_TIMEOUT", "3s")
	t.Setenv("MAURICE_HISTORY_LIMIT", "10")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.True(t, cfg.VoiceEnabled())
	assert.False(t, cfg.CORSAllowAll)
	assert.Contains(t, cfg.CORSAllowedOrigins, "https://maurice.chat")
	assert.Contains(t, cfg.CORSAllowedOrigins, "https://staging.maurice.chat")
	assert.Equal(t, 3*time.Second, cfg.STTTimeout)
	assert.Equal(t, 10, cfg.HistoryLimit)
}

func TestLoadFromEnv_ContactRequiresFrom(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("MAURICE_SMTP_HOST", "smtp.example.com")
	t.Setenv("MAURICE_CONTACT_RECIPIENT", "owner@example.com")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAURICE_SMTP_FROM")

	t.Setenv("MAURICE_SMTP_FROM", "maurice@example.com")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.ContactEnabled())
}

func TestLoadFromEnv_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("MAURICE_LLM_TIMEOUT", "not-a-duration")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
}
