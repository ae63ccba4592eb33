// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs or a
// local Piper instance). The journal uses it to read a corrected entry back
// to the learner, synthesizing from plain text with all annotation markup
// stripped.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize renders text as audio using the given provider-specific
	// voice. It returns the complete encoded audio clip; the encoding is
	// reported by AudioFormat. Returns an error if the voice is unknown, the
	// service fails, or ctx is cancelled.
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)

	// AudioFormat returns the MIME type of clips produced by Synthesize
	// (e.g. "audio/mpeg"). Constant for the lifetime of the instance.
	AudioFormat() string
}
