package elevenlabs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kotoba-app/kotoba/pkg/provider/tts/elevenlabs"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := elevenlabs.New(""); err == nil {
		t.Fatal("New(\"\") succeeded, want error")
	}
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	wantAudio := []byte{0xff, 0xfb, 0x90, 0x00}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/text-to-speech/voice-123" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "key-abc" {
			t.Errorf("xi-api-key = %q", got)
		}
		var body struct {
			Text    string `json:"text"`
			ModelID string `json:"model_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Text != "食べます" {
			t.Errorf("text = %q", body.Text)
		}
		if body.ModelID == "" {
			t.Error("model_id missing")
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(wantAudio)
	}))
	defer srv.Close()

	p, err := elevenlabs.New("key-abc", elevenlabs.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	audio, err := p.Synthesize(context.Background(), "食べます", "voice-123")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(audio, wantAudio) {
		t.Errorf("audio = %x, want %x", audio, wantAudio)
	}
	if got := p.AudioFormat(); got != "audio/mpeg" {
		t.Errorf("AudioFormat = %q", got)
	}
}

func TestSynthesize_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"voice not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	p, err := elevenlabs.New("key-abc", elevenlabs.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Synthesize(context.Background(), "hello", "missing-voice"); err == nil {
		t.Fatal("Synthesize succeeded, want error on 404")
	}
}

func TestSynthesize_ValidatesInput(t *testing.T) {
	t.Parallel()

	p, err := elevenlabs.New("key-abc")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Synthesize(context.Background(), "", "voice-123"); err == nil {
		t.Error("empty text accepted")
	}
	if _, err := p.Synthesize(context.Background(), "hello", ""); err == nil {
		t.Error("empty voiceID accepted")
	}
}
