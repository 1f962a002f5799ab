package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/maurice-chat/maurice/pkg/core/exchange"
	"github.com/maurice-chat/maurice/pkg/core/mail"
	"github.com/maurice-chat/maurice/pkg/core/session"
	"github.com/maurice-chat/maurice/pkg/core/voice/stt"
	"github.com/maurice-chat/maurice/pkg/core/voice/tts"
	"github.com/maurice-chat/maurice/pkg/gateway/apierror"
	"github.com/maurice-chat/maurice/pkg/gateway/config"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f fakeLLM) Generate(ctx context.Context, systemPrompt string, turns []session.Turn) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeSTT struct {
	text string
	err  error
}

func (f fakeSTT) Name() string { return "fake-stt" }

func (f fakeSTT) Transcribe(ctx context.Context, audio io.Reader, opts stt.TranscribeOptions) (*stt.Transcript, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &stt.Transcript{Text: f.text, Confidence: 1}, nil
}

type fakeTTS struct {
	audio []byte
	err   error
}

func (f fakeTTS) Name() string { return "fake-tts" }

func (f fakeTTS) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOptions) (*tts.Synthesis, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tts.Synthesis{Audio: f.audio, MIME: "audio/mpeg"}, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) messages() []mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mail.Message(nil), f.sent...)
}

func testConfig() config.Config {
	return config.Config{
		MaxBodyBytes:      1 << 20,
		WSMaxMessageBytes: 1 << 20,
		CORSAllowAll:      true,
	}
}

func newTestExchanger(store *session.Store, llm exchange.LLM, sttP stt.Provider, ttsP tts.Provider) *exchange.Exchanger {
	return &exchange.Exchanger{
		Sessions: store,
		STT:      sttP,
		LLM:      llm,
		TTS:      ttsP,
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apierror.Envelope {
	t.Helper()
	var env apierror.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (body=%s)", err, rec.Body.String())
	}
	if env.Error == nil {
		t.Fatalf("missing error in envelope: %s", rec.Body.String())
	}
	return env
}
