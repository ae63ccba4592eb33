package resilience

import (
	"context"

	"github.com/kotoba-app/kotoba/pkg/provider/tts"
)

// TTSFallback implements [tts.Provider] with automatic failover across multiple
// TTS backends. Each backend has its own circuit breaker.
type TTSFallback struct {
	group *FallbackGroup[tts.Provider]
}

// Compile-time interface assertion.
var _ tts.Provider = (*TTSFallback)(nil)

// NewTTSFallback creates a [TTSFallback] with primary as the preferred backend.
func NewTTSFallback(primary tts.Provider, primaryName string, cfg FallbackConfig) *TTSFallback {
	return &TTSFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional TTS provider as a fallback.
func (f *TTSFallback) AddFallback(name string, provider tts.Provider) {
	f.group.AddFallback(name, provider)
}

// Synthesize renders text with the first healthy provider. Voice IDs are
// provider-specific, so fallbacks only make sense between backends that share
// a voice namespace (e.g. two deployments of the same service).
func (f *TTSFallback) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	return ExecuteWithResult(f.group, func(p tts.Provider) ([]byte, error) {
		return p.Synthesize(ctx, text, voiceID)
	})
}

// AudioFormat returns the format of the primary. All registered backends must
// produce the same encoding for the served Content-Type to stay truthful.
func (f *TTSFallback) AudioFormat() string {
	if len(f.group.entries) > 0 {
		return f.group.entries[0].value.AudioFormat()
	}
	return ""
}
