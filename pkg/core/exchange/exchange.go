// Package exchange implements the conversational exchange lifecycle: one
// user utterance (text, or audio needing transcription) in, one assistant
// reply (optionally synthesized to audio) out. Upstream STT/LLM/TTS
// capabilities are pluggable; their failures are absorbed into placeholder
// or apology replies so the user-facing channel always produces a response.
package exchange

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maurice-chat/maurice/pkg/core/session"
	"github.com/maurice-chat/maurice/pkg/core/voice/stt"
	"github.com/maurice-chat/maurice/pkg/core/voice/tts"
)

// DefaultSystemPrompt is the fixed system instruction sent with every
// generation request.
const DefaultSystemPrompt = `You are Maurice, a friendly and helpful AI voice assistant.

Your goal is to have natural, engaging conversations with users.

Guidelines:
- Keep responses concise and conversational (1-2 sentences typically)
- Be warm, friendly, and personable
- Ask follow-up questions to keep the conversation flowing
- Your responses will be converted to speech, so avoid special characters, URLs, or formatting
- Respond naturally as if you're having a real conversation

Start by greeting the user warmly and asking how you can help them today.`

// ListeningPrompt is returned when transcription produced nothing usable.
const ListeningPrompt = "I'm listening, but I didn't quite catch that. Could you say it again?"

// DefaultFallbackContact is named in the apology reply when generation fails.
const DefaultFallbackContact = "hello@maurice.chat"

const (
	defaultSTTTimeout = 10 * time.Second
	defaultLLMTimeout = 30 * time.Second
	defaultTTSTimeout = 15 * time.Second
)

// LLM is the text-generation capability.
type LLM interface {
	Generate(ctx context.Context, systemPrompt string, turns []session.Turn) (string, error)
}

// Result is the outcome of one completed exchange.
type Result struct {
	Transcript string // present only when the input was audio
	Reply      string
	Audio      []byte // synthesized reply, nil for text-only channels
	AudioMIME  string
}

// Exchanger runs exchanges against a session store. STT and TTS are
// optional; LLM and Sessions are required.
type Exchanger struct {
	Sessions *session.Store
	STT      stt.Provider
	LLM      LLM
	TTS      tts.Provider

	SystemPrompt    string
	FallbackContact string
	HistoryLimit    int // max turns sent upstream, 0 = unlimited

	STTTimeout time.Duration
	LLMTimeout time.Duration
	TTSTimeout time.Duration

	Logger *slog.Logger
}

// Text runs one text exchange. It fails with session.ErrBusy when the
// session already has an exchange in flight; any upstream failure is
// absorbed into the apology reply.
func (e *Exchanger) Text(ctx context.Context, sessionID, message string) (*Result, error) {
	release, err := e.Sessions.Begin(sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	reply, err := e.generate(ctx, sessionID, message)
	if err != nil {
		return nil, err
	}
	e.Sessions.Append(sessionID, message, reply)
	return &Result{Reply: reply}, nil
}

// Voice runs one audio exchange: transcribe, generate, optionally
// synthesize. A failed or empty transcription short-circuits to a
// re-prompt without touching history; the processing flag is released on
// every path.
func (e *Exchanger) Voice(ctx context.Context, sessionID string, audio []byte, format string, wantAudio bool) (*Result, error) {
	release, err := e.Sessions.Begin(sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	transcript := e.transcribe(ctx, audio, format)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if transcript == "" {
		return &Result{Reply: ListeningPrompt}, nil
	}

	reply, err := e.generate(ctx, sessionID, transcript)
	if err != nil {
		return nil, err
	}

	result := &Result{Transcript: transcript, Reply: reply}
	if wantAudio && e.TTS != nil {
		result.Audio, result.AudioMIME = e.synthesize(ctx, reply)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	e.Sessions.Append(sessionID, transcript, reply)
	return result, nil
}

// transcribe delegates to the STT capability. Failures become an empty
// transcript so the caller can treat them as "nothing understood".
func (e *Exchanger) transcribe(ctx context.Context, audio []byte, format string) string {
	if e.STT == nil || len(audio) == 0 {
		return ""
	}

	callCtx, cancel := context.WithTimeout(ctx, orDefault(e.STTTimeout, defaultSTTTimeout))
	defer cancel()

	transcript, err := e.STT.Transcribe(callCtx, bytes.NewReader(audio), stt.TranscribeOptions{Format: format})
	if err != nil {
		e.logger().Warn("stt failed", "provider", e.STT.Name(), "error", err)
		return ""
	}
	return transcript.Text
}

// generate delegates to the LLM capability using the accumulated history
// plus the current user turn. Upstream failure yields the canned apology;
// parent-context cancellation propagates so abandoned exchanges never
// append partial results.
func (e *Exchanger) generate(ctx context.Context, sessionID, userText string) (string, error) {
	turns := e.Sessions.History(sessionID)
	turns = append(turns, session.Turn{Role: session.RoleUser, Content: userText})
	if e.HistoryLimit > 0 && len(turns) > e.HistoryLimit {
		turns = turns[len(turns)-e.HistoryLimit:]
	}

	systemPrompt := e.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	callCtx, cancel := context.WithTimeout(ctx, orDefault(e.LLMTimeout, defaultLLMTimeout))
	defer cancel()

	reply, err := e.LLM.Generate(callCtx, systemPrompt, turns)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		e.logger().Warn("generation failed", "session_id", sessionID, "error", err)
		return e.fallbackReply(), nil
	}
	return reply, nil
}

// synthesize delegates to the TTS capability; failure yields no audio.
func (e *Exchanger) synthesize(ctx context.Context, text string) ([]byte, string) {
	callCtx, cancel := context.WithTimeout(ctx, orDefault(e.TTSTimeout, defaultTTSTimeout))
	defer cancel()

	syn, err := e.TTS.Synthesize(callCtx, text, tts.SynthesizeOptions{})
	if err != nil {
		e.logger().Warn("tts failed", "provider", e.TTS.Name(), "error", err)
		return nil, ""
	}
	return syn.Audio, syn.MIME
}

func (e *Exchanger) fallbackReply() string {
	contact := e.FallbackContact
	if contact == "" {
		contact = DefaultFallbackContact
	}
	return fmt.Sprintf("I'm sorry, I'm having trouble responding right now. Please try again in a moment, or email %s to reach a human.", contact)
}

func (e *Exchanger) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
