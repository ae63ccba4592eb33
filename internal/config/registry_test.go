package config_test

import (
	"errors"
	"testing"

	"github.com/kotoba-app/kotoba/internal/config"
	"github.com/kotoba-app/kotoba/pkg/provider/llm"
	llmmock "github.com/kotoba-app/kotoba/pkg/provider/llm/mock"
	"github.com/kotoba-app/kotoba/pkg/provider/tts"
	ttsmock "github.com/kotoba-app/kotoba/pkg/provider/tts/mock"
)

func TestRegistry_CreateLLM(t *testing.T) {
	t.Parallel()

	reg := config.NewRegistry()
	var gotEntry config.ProviderEntry
	reg.RegisterLLM("mock", func(entry config.ProviderEntry) (llm.Provider, error) {
		gotEntry = entry
		return &llmmock.Provider{Model: entry.Model}, nil
	})

	entry := config.ProviderEntry{Name: "mock", Model: "test-model"}
	p, err := reg.CreateLLM(entry)
	if err != nil {
		t.Fatalf("CreateLLM: %v", err)
	}
	if p.ModelID() != "test-model" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
	if gotEntry.Name != "mock" {
		t.Errorf("factory received entry %+v", gotEntry)
	}
}

func TestRegistry_UnregisteredName(t *testing.T) {
	t.Parallel()

	reg := config.NewRegistry()
	if _, err := reg.CreateLLM(config.ProviderEntry{Name: "ghost"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateLLM error = %v, want ErrProviderNotRegistered", err)
	}
	if _, err := reg.CreateTTS(config.ProviderEntry{Name: "ghost"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateTTS error = %v, want ErrProviderNotRegistered", err)
	}
	if _, err := reg.CreateEmbeddings(config.ProviderEntry{Name: "ghost"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateEmbeddings error = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_OverwriteRegistration(t *testing.T) {
	t.Parallel()

	reg := config.NewRegistry()
	reg.RegisterTTS("mock", func(config.ProviderEntry) (tts.Provider, error) {
		return &ttsmock.Provider{Format: "audio/wav"}, nil
	})
	reg.RegisterTTS("mock", func(config.ProviderEntry) (tts.Provider, error) {
		return &ttsmock.Provider{Format: "audio/mpeg"}, nil
	})

	p, err := reg.CreateTTS(config.ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("CreateTTS: %v", err)
	}
	if got := p.AudioFormat(); got != "audio/mpeg" {
		t.Errorf("AudioFormat = %q, want last registration to win", got)
	}
}
