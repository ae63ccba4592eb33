// Package mock provides a test double for the tts.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/kotoba-app/kotoba/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	Text    string
	VoiceID string
}

// Provider is a mock tts.Provider.
type Provider struct {
	mu sync.Mutex

	// Audio is returned by Synthesize. Defaults to a small placeholder clip.
	Audio []byte

	// Err, if non-nil, is returned from Synthesize.
	Err error

	// Format is returned by AudioFormat. Defaults to "audio/mpeg".
	Format string

	// SynthesizeCalls records every invocation of Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

var _ tts.Provider = (*Provider)(nil)

// Synthesize records the call and returns the configured audio.
func (p *Provider) Synthesize(_ context.Context, text, voiceID string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Text: text, VoiceID: voiceID})
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Audio == nil {
		return []byte("mock-audio"), nil
	}
	return p.Audio, nil
}

// AudioFormat returns Format, or "audio/mpeg" when unset.
func (p *Provider) AudioFormat() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Format == "" {
		return "audio/mpeg"
	}
	return p.Format
}
