// Package api exposes the kotoba HTTP API.
//
// The server wires the correction pipeline, the journal store and the
// optional embeddings/TTS providers into a [net/http.ServeMux]:
//
//	POST /v1/entries              — run the pipeline and persist an entry
//	GET  /v1/entries              — list entries (?language=, ?limit=)
//	GET  /v1/entries/{id}         — fetch one entry
//	GET  /v1/entries/{id}/similar — embedding nearest-neighbour recall
//	GET  /v1/entries/{id}/speech  — synthesize the corrected text
//	POST /v1/preview/diff         — stateless diff markup
//	POST /v1/preview/weave        — stateless annotation weaving
//	GET  /v1/preview/live         — websocket live preview
//	GET  /healthz, /readyz, /metrics
//
// All JSON errors have the shape {"error": "message"}.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kotoba-app/kotoba/internal/health"
	"github.com/kotoba-app/kotoba/internal/journal"
	"github.com/kotoba-app/kotoba/internal/observe"
	"github.com/kotoba-app/kotoba/internal/segment"
	"github.com/kotoba-app/kotoba/internal/tutor"
	"github.com/kotoba-app/kotoba/pkg/provider/embeddings"
	"github.com/kotoba-app/kotoba/pkg/provider/tts"
)

// Server handles all kotoba HTTP traffic. Construct with [New]; the zero
// value is not usable.
type Server struct {
	store    journal.Store
	pipeline *tutor.Pipeline

	embeddings embeddings.Provider
	tts        tts.Provider
	voices     map[string]string // language code -> provider voice ID
	annotators map[string]segment.Annotator

	health  *health.Handler
	metrics *observe.Metrics
}

// Option configures a [Server].
type Option func(*Server)

// WithEmbeddings enables similar-entry recall backed by the given provider.
func WithEmbeddings(p embeddings.Provider) Option {
	return func(s *Server) { s.embeddings = p }
}

// WithTTS enables the speech endpoint. voices maps language codes to
// provider voice IDs; languages without a voice return an error from the
// speech endpoint.
func WithTTS(p tts.Provider, voices map[string]string) Option {
	return func(s *Server) {
		s.tts = p
		s.voices = voices
	}
}

// WithAnnotator registers a segmenter for the given language code, used by
// the weave preview and the live channel.
func WithAnnotator(language string, a segment.Annotator) Option {
	return func(s *Server) { s.annotators[language] = a }
}

// WithHealth replaces the default (checker-less) health handler.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetrics replaces the default metrics instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a Server backed by the given store and pipeline.
func New(store journal.Store, pipeline *tutor.Pipeline, opts ...Option) *Server {
	s := &Server{
		store:      store,
		pipeline:   pipeline,
		annotators: make(map[string]segment.Annotator),
	}
	for _, o := range opts {
		o(s)
	}
	if s.health == nil {
		s.health = health.New()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Handler returns the full route table wrapped in the metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/entries", s.handleCreateEntry)
	mux.HandleFunc("GET /v1/entries", s.handleListEntries)
	mux.HandleFunc("GET /v1/entries/{id}", s.handleGetEntry)
	mux.HandleFunc("GET /v1/entries/{id}/similar", s.handleSimilarEntries)
	mux.HandleFunc("GET /v1/entries/{id}/speech", s.handleSpeech)

	mux.HandleFunc("POST /v1/preview/diff", s.handlePreviewDiff)
	mux.HandleFunc("POST /v1/preview/weave", s.handlePreviewWeave)
	mux.HandleFunc("GET /v1/preview/live", s.handleLivePreview)

	s.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return observe.Middleware(s.metrics)(mux)
}

// annotator returns the registered annotator for a language, or nil.
func (s *Server) annotator(language string) segment.Annotator {
	return s.annotators[language]
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
