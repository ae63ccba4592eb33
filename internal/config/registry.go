package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kotoba-app/kotoba/pkg/provider/embeddings"
	"github.com/kotoba-app/kotoba/pkg/provider/llm"
	"github.com/kotoba-app/kotoba/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Factory builds a provider of type T from its config entry.
type Factory[T any] func(ProviderEntry) (T, error)

// factoryMap is a named collection of provider factories. The zero value is
// not usable; create via newFactoryMap.
type factoryMap[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

func newFactoryMap[T any](kind string) *factoryMap[T] {
	return &factoryMap[T]{kind: kind, factories: make(map[string]Factory[T])}
}

func (fm *factoryMap[T]) register(name string, factory Factory[T]) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.factories[name] = factory
}

func (fm *factoryMap[T]) create(entry ProviderEntry) (T, error) {
	fm.mu.RLock()
	factory, ok := fm.factories[entry.Name]
	fm.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s/%q", ErrProviderNotRegistered, fm.kind, entry.Name)
	}
	return factory(entry)
}

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	llm        *factoryMap[llm.Provider]
	tts        *factoryMap[tts.Provider]
	embeddings *factoryMap[embeddings.Provider]
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm:        newFactoryMap[llm.Provider]("llm"),
		tts:        newFactoryMap[tts.Provider]("tts"),
		embeddings: newFactoryMap[embeddings.Provider]("embeddings"),
	}
}

// RegisterLLM registers an LLM provider factory under name. Subsequent calls
// with the same name overwrite the previous registration; the same holds for
// the other Register methods.
func (r *Registry) RegisterLLM(name string, factory Factory[llm.Provider]) {
	r.llm.register(name, factory)
}

// RegisterTTS registers a TTS provider factory under name.
func (r *Registry) RegisterTTS(name string, factory Factory[tts.Provider]) {
	r.tts.register(name, factory)
}

// RegisterEmbeddings registers an embeddings provider factory under name.
func (r *Registry) RegisterEmbeddings(name string, factory Factory[embeddings.Provider]) {
	r.embeddings.register(name, factory)
}

// CreateLLM instantiates an LLM provider using the factory registered under
// entry.Name. Returns [ErrProviderNotRegistered] if no factory has been
// registered for that name; the same holds for the other Create methods.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	return r.llm.create(entry)
}

// CreateTTS instantiates a TTS provider using the factory registered under entry.Name.
func (r *Registry) CreateTTS(entry ProviderEntry) (tts.Provider, error) {
	return r.tts.create(entry)
}

// CreateEmbeddings instantiates an embeddings provider using the factory registered under entry.Name.
func (r *Registry) CreateEmbeddings(entry ProviderEntry) (embeddings.Provider, error) {
	return r.embeddings.create(entry)
}
