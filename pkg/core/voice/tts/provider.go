// Package tts provides text-to-speech functionality.
package tts

import "context"

// Provider is the interface for text-to-speech services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts text to audio.
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error)
}

// SynthesizeOptions configures synthesis.
type SynthesizeOptions struct {
	Voice    string // Voice identifier (default: "aura-asteria-en")
	Encoding string // Output encoding: "mp3", "linear16", etc.
}

// Synthesis is the result of synthesis.
type Synthesis struct {
	Audio []byte // Audio data
	MIME  string // MIME type of the audio data
}
