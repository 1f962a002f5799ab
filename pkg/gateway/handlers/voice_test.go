package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maurice-chat/maurice/pkg/core/exchange"
	"github.com/maurice-chat/maurice/pkg/core/session"
	"github.com/maurice-chat/maurice/pkg/gateway/apierror"
)

func voiceBody(t *testing.T, audio, sessionID string) string {
	t.Helper()
	payload := map[string]string{
		"audio_data": base64.StdEncoding.EncodeToString([]byte(audio)),
		"format":     "webm",
		"session_id": sessionID,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}

func TestVoiceHandler_Exchange(t *testing.T) {
	store := session.NewStore()
	h := VoiceHandler{
		Config:    testConfig(),
		Exchanger: newTestExchanger(store, fakeLLM{reply: "Nice to meet you!"}, fakeSTT{text: "hi maurice"}, fakeTTS{audio: []byte("mp3-bytes")}),
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/voice/send", strings.NewReader(voiceBody(t, "pcm", "v1"))))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var resp voiceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Transcript != "hi maurice" {
		t.Fatalf("transcript=%q", resp.Transcript)
	}
	if resp.Text != "Nice to meet you!" {
		t.Fatalf("text=%q", resp.Text)
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioB64)
	if err != nil || string(audio) != "mp3-bytes" {
		t.Fatalf("audio_b64=%q err=%v", resp.AudioB64, err)
	}
	if resp.AudioMIME != "audio/mpeg" {
		t.Fatalf("audio_mime=%q", resp.AudioMIME)
	}

	if turns := store.History("v1"); len(turns) != 2 {
		t.Fatalf("history=%d turns, want 2", len(turns))
	}
}

func TestVoiceHandler_EmptyTranscriptReprompts(t *testing.T) {
	store := session.NewStore()
	h := VoiceHandler{
		Config:    testConfig(),
		Exchanger: newTestExchanger(store, fakeLLM{reply: "unused"}, fakeSTT{err: errors.New("stt down")}, nil),
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/voice/send", strings.NewReader(voiceBody(t, "pcm", "v1"))))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var resp voiceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Text != exchange.ListeningPrompt {
		t.Fatalf("text=%q, want listening prompt", resp.Text)
	}
	if resp.Transcript != "" {
		t.Fatalf("transcript=%q, want empty", resp.Transcript)
	}
	if turns := store.History("v1"); len(turns) != 0 {
		t.Fatalf("history=%d turns, want 0", len(turns))
	}
}

func TestVoiceHandler_Rejections(t *testing.T) {
	h := VoiceHandler{
		Config:    testConfig(),
		Exchanger: newTestExchanger(session.NewStore(), fakeLLM{reply: "ok"}, fakeSTT{text: "hi"}, nil),
	}

	tests := []struct {
		name  string
		body  string
		param string
	}{
		{"missing audio", `{"session_id":"v1"}`, "audio_data"},
		{"bad base64", `{"audio_data":"%%%","session_id":"v1"}`, "audio_data"},
		{"not json", `{`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/voice/send", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status=%d, want 400", rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Error.Type != apierror.ErrValidation {
				t.Fatalf("type=%q", env.Error.Type)
			}
			if env.Error.Param != tt.param {
				t.Fatalf("param=%q, want %q", env.Error.Param, tt.param)
			}
		})
	}
}
