package resilience

import (
	"context"
	"errors"
	"testing"

	ttsmock "github.com/kotoba-app/kotoba/pkg/provider/tts/mock"
)

func TestTTSFallback_Synthesize_PrimarySuccess(t *testing.T) {
	primary := &ttsmock.Provider{Audio: []byte("primary-audio")}
	secondary := &ttsmock.Provider{Audio: []byte("secondary-audio")}

	fb := NewTTSFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	audio, err := fb.Synthesize(context.Background(), "こんにちは", "v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(audio) != "primary-audio" {
		t.Errorf("audio = %q, want 'primary-audio'", audio)
	}
	if len(primary.SynthesizeCalls) != 1 {
		t.Fatalf("primary called %d times, want 1", len(primary.SynthesizeCalls))
	}
	if got := primary.SynthesizeCalls[0]; got.Text != "こんにちは" || got.VoiceID != "v1" {
		t.Errorf("primary called with (%q, %q), want (こんにちは, v1)", got.Text, got.VoiceID)
	}
}

func TestTTSFallback_Synthesize_FailsOver(t *testing.T) {
	primary := &ttsmock.Provider{Err: errors.New("quota exceeded")}
	secondary := &ttsmock.Provider{Audio: []byte("secondary-audio")}

	fb := NewTTSFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	audio, err := fb.Synthesize(context.Background(), "안녕하세요", "v2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(audio) != "secondary-audio" {
		t.Errorf("audio = %q, want 'secondary-audio'", audio)
	}
}

func TestTTSFallback_Synthesize_AllFail(t *testing.T) {
	primary := &ttsmock.Provider{Err: errors.New("down")}

	fb := NewTTSFallback(primary, "primary", FallbackConfig{})

	_, err := fb.Synthesize(context.Background(), "text", "v1")
	if !errors.Is(err, ErrAllFailed) {
		t.Errorf("error = %v, want ErrAllFailed", err)
	}
}

func TestTTSFallback_AudioFormat_IsPrimarys(t *testing.T) {
	primary := &ttsmock.Provider{Format: "audio/ogg"}
	secondary := &ttsmock.Provider{Format: "audio/mpeg"}

	fb := NewTTSFallback(primary, "primary", FallbackConfig{})
	fb.AddFallback("secondary", secondary)

	if got, want := fb.AudioFormat(), "audio/ogg"; got != want {
		t.Errorf("AudioFormat() = %q, want %q", got, want)
	}
}
