// Package anthropic implements a minimal client for the Anthropic Messages
// API, used as the text-generation capability behind conversation exchanges.
package anthropic

import (
	"context"
	"fmt"
	"net/http"

	"github.com/maurice-chat/maurice/pkg/core/session"
)

const (
	// DefaultBaseURL is the default Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// APIVersion is the required Anthropic API version header.
	APIVersion = "2023-06-01"

	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-3-5-sonnet-20241022"

	// DefaultMaxTokens is the default reply token budget. Replies are spoken
	// aloud, so they should stay short.
	DefaultMaxTokens = 1024
)

// Provider calls the Anthropic Messages API.
type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

// WithModel overrides the model identifier.
func WithModel(m string) Option {
	return func(p *Provider) {
		if m != "" {
			p.model = m
		}
	}
}

// WithMaxTokens overrides the reply token budget.
func WithMaxTokens(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// New creates a new Anthropic provider.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		maxTokens:  DefaultMaxTokens,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "anthropic"
}

// Generate sends the system instruction plus the accumulated conversation
// (ending with the current user turn) and returns the assistant's reply text.
func (p *Provider) Generate(ctx context.Context, systemPrompt string, turns []session.Turn) (string, error) {
	req := &messagesRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    systemPrompt,
		Messages:  make([]message, 0, len(turns)),
	}
	for _, t := range turns {
		req.Messages = append(req.Messages, message{Role: t.Role, Content: t.Content})
	}

	respBody, err := p.doRequest(ctx, req)
	if err != nil {
		return "", err
	}
	return parseReply(respBody)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseReply(body []byte) (string, error) {
	resp, err := decodeResponse(body)
	if err != nil {
		return "", err
	}
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic: response contained no text block")
}
