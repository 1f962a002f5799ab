// Package protocol defines the WebSocket frame vocabulary for the live chat
// channel and strict decoding of client frames.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Client frame types.
const (
	TypeAudio = "audio"
	TypeText  = "text"
)

// Server frame types.
const (
	TypeConnected       = "connected"
	TypeTranscript      = "transcript"
	TypeFinalTranscript = "final_transcript"
	TypeResponse        = "response"
	TypeError           = "error"
)

// DecodeError is a field-level client frame rejection.
type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

// ClientAudio carries one user utterance as base64-encoded audio.
type ClientAudio struct {
	Type   string `json:"type"`
	Data   string `json:"data"`
	Format string `json:"format,omitempty"`
}

// Bytes decodes the base64 audio payload.
func (m ClientAudio) Bytes() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(m.Data)
	if err != nil {
		return nil, badRequest("audio data is not valid base64", "data")
	}
	return raw, nil
}

// ClientText carries one user utterance as plain text.
type ClientText struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// DecodeClientMessage parses and validates one inbound frame. It returns
// ClientAudio or ClientText.
func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}

	switch typ := strings.TrimSpace(envelope.Type); typ {
	case TypeAudio:
		var msg ClientAudio
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid audio frame", "")
		}
		if strings.TrimSpace(msg.Data) == "" {
			return nil, badRequest("audio.data is required", "data")
		}
		return msg, nil
	case TypeText:
		var msg ClientText
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid text frame", "")
		}
		if strings.TrimSpace(msg.Message) == "" {
			return nil, badRequest("text.message is required", "message")
		}
		return msg, nil
	case "":
		return nil, badRequest("missing type", "type")
	default:
		return nil, badRequest("unsupported message type", "type")
	}
}

// ServerFrame is one outbound frame.
type ServerFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Connected builds the greeting frame sent after session setup.
func Connected(sessionID string) ServerFrame {
	return ServerFrame{Type: TypeConnected, Content: sessionID}
}

// Transcript builds an interim transcript frame.
func Transcript(text string) ServerFrame {
	return ServerFrame{Type: TypeTranscript, Content: text}
}

// FinalTranscript builds the committed transcript frame for an utterance.
func FinalTranscript(text string) ServerFrame {
	return ServerFrame{Type: TypeFinalTranscript, Content: text}
}

// Response builds the assistant reply frame.
func Response(text string) ServerFrame {
	return ServerFrame{Type: TypeResponse, Content: text}
}

// ErrorFrame builds an error frame with a client-safe message.
func ErrorFrame(message string) ServerFrame {
	return ServerFrame{Type: TypeError, Content: message}
}
