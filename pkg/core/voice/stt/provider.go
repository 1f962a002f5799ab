// Package stt provides speech-to-text functionality.
package stt

import (
	"context"
	"io"
)

// Provider is the interface for speech-to-text services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Transcribe converts audio to text.
	Transcribe(ctx context.Context, audio io.Reader, opts TranscribeOptions) (*Transcript, error)
}

// TranscribeOptions configures transcription.
type TranscribeOptions struct {
	Model    string // Provider-specific model (default: "nova-2")
	Language string // ISO language code (default: "en")
	Format   string // Audio format hint (webm, wav, mp3, etc.)
}

// Transcript is the result of transcription.
type Transcript struct {
	Text       string  // Full transcribed text
	Confidence float64 // Confidence score (0-1), if the provider reports one
}
