package handlers

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maurice-chat/maurice/pkg/core/exchange"
	"github.com/maurice-chat/maurice/pkg/gateway/apierror"
	"github.com/maurice-chat/maurice/pkg/gateway/config"
)

// VoiceHandler handles POST /api/voice/send: one base64 audio utterance
// in, transcript plus assistant reply (and optional reply audio) out.
type VoiceHandler struct {
	Config    config.Config
	Exchanger *exchange.Exchanger
	Logger    *slog.Logger
}

type voiceRequest struct {
	AudioData string `json:"audio_data"`
	Format    string `json:"format"`
	SessionID string `json:"session_id"`
	WantAudio *bool  `json:"want_audio"`
}

type voiceResponse struct {
	Text       string `json:"text"`
	Transcript string `json:"transcript"`
	AudioB64   string `json:"audio_b64,omitempty"`
	AudioMIME  string `json:"audio_mime,omitempty"`
	SessionID  string `json:"session_id"`
	Timestamp  string `json:"timestamp"`
}

func (h VoiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	var req voiceRequest
	body := http.MaxBytesReader(w, r.Body, h.Config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, r, apierror.Validation("invalid json body", ""))
		return
	}
	if strings.TrimSpace(req.AudioData) == "" {
		writeError(w, r, apierror.Validation("audio_data is required", "audio_data"))
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioData)
	if err != nil {
		writeError(w, r, apierror.Validation("audio_data is not valid base64", "audio_data"))
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	wantAudio := req.WantAudio == nil || *req.WantAudio

	result, err := h.Exchanger.Voice(r.Context(), sessionID, audio, req.Format, wantAudio)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := voiceResponse{
		Text:       result.Reply,
		Transcript: result.Transcript,
		SessionID:  sessionID,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if len(result.Audio) > 0 {
		resp.AudioB64 = base64.StdEncoding.EncodeToString(result.Audio)
		resp.AudioMIME = result.AudioMIME
	}
	writeJSON(w, http.StatusOK, resp)
}
