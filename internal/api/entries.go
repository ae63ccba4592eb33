package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kotoba-app/kotoba/internal/journal"
	"github.com/kotoba-app/kotoba/internal/observe"
	"github.com/kotoba-app/kotoba/pkg/ruby"
)

// maxSimilarResults caps the ?k= parameter on the similar endpoint.
const maxSimilarResults = 50

// createEntryRequest is the body for POST /v1/entries.
type createEntryRequest struct {
	Language string `json:"language"`
	Day      string `json:"day"`
	Text     string `json:"text"`
}

// handleCreateEntry runs the tutor pipeline on the submitted draft and
// persists the result. Pipeline stage failures degrade the entry but never
// fail the write; only storage errors produce a non-2xx response.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Language == "" {
		writeError(w, http.StatusBadRequest, "language is required")
		return
	}

	ctx := r.Context()
	res, err := s.pipeline.Process(ctx, req.Text, req.Language)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "processing cancelled")
		return
	}

	entry := &journal.Entry{
		Language:           req.Language,
		Day:                req.Day,
		Original:           res.Original,
		Corrected:          res.Corrected,
		AnnotatedOriginal:  res.AnnotatedOriginal,
		AnnotatedCorrected: res.AnnotatedCorrected,
		DiffMarkup:         res.Script,
		Vocabulary:         res.Vocabulary,
		Degraded:           res.Degraded,
	}

	if s.embeddings != nil {
		vec, err := s.embeddings.Embed(ctx, res.Corrected)
		if err != nil {
			observe.Logger(ctx).Warn("embedding failed; entry stored without vector",
				"language", req.Language,
				"error", err,
			)
			s.metrics.RecordProviderError(ctx, s.embeddings.ModelID(), "embeddings")
		} else {
			entry.Embedding = vec
		}
	}

	if err := s.store.Create(ctx, entry); err != nil {
		observe.Logger(ctx).Error("entry create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store entry")
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// handleGetEntry serves GET /v1/entries/{id}.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load entry")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleListEntries serves GET /v1/entries with optional ?language= and
// ?limit= parameters.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	f := journal.Filter{Language: r.URL.Query().Get("language")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}

	entries, err := s.store.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list entries")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleSimilarEntries serves GET /v1/entries/{id}/similar. It requires an
// embeddings provider; without one the endpoint is not available.
func (s *Server) handleSimilarEntries(w http.ResponseWriter, r *http.Request) {
	if s.embeddings == nil {
		writeError(w, http.StatusServiceUnavailable, "similarity search is not configured")
		return
	}

	id := r.PathValue("id")
	entry, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load entry")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	topK := 5
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSimilarResults {
			writeError(w, http.StatusBadRequest, "k must be between 1 and 50")
			return
		}
		topK = n
	}

	results, err := s.store.SimilarTo(r.Context(), id, topK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "similarity search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"similar": results})
}

// handleSpeech serves GET /v1/entries/{id}/speech: it strips annotation
// markup from the corrected text and synthesizes it with the language's
// configured voice.
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	if s.tts == nil {
		writeError(w, http.StatusServiceUnavailable, "speech synthesis is not configured")
		return
	}

	ctx := r.Context()
	entry, err := s.store.Get(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load entry")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	voice := s.voices[entry.Language]
	if voice == "" {
		writeError(w, http.StatusServiceUnavailable, "no voice configured for language "+entry.Language)
		return
	}

	text := entry.AnnotatedCorrected
	if text == "" {
		text = entry.Corrected
	}
	if text == "" {
		text = entry.Original
	}
	spoken := ruby.Strip(text)

	start := time.Now()
	audio, err := s.tts.Synthesize(ctx, spoken, voice)
	s.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordProviderError(ctx, "tts", "tts")
		observe.Logger(ctx).Warn("speech synthesis failed", "entry", entry.ID, "error", err)
		writeError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}
	s.metrics.RecordProviderRequest(ctx, "tts", "tts", "ok")

	w.Header().Set("Content-Type", s.tts.AudioFormat())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}
