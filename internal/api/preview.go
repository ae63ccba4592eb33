package api

import (
	"encoding/json"
	"net/http"

	"github.com/kotoba-app/kotoba/internal/segment"
	"github.com/kotoba-app/kotoba/pkg/ruby"
)

// previewDiffRequest is the body for POST /v1/preview/diff.
type previewDiffRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// previewDiffResponse carries the edit script in both markup forms.
type previewDiffResponse struct {
	Diff     string `json:"diff"`
	Rendered string `json:"rendered"`
}

// handlePreviewDiff computes the edit script between two texts without
// touching the store.
func (s *Server) handlePreviewDiff(w http.ResponseWriter, r *http.Request) {
	var req previewDiffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	diff := ruby.Diff(req.Old, req.New)
	writeJSON(w, http.StatusOK, previewDiffResponse{
		Diff:     diff,
		Rendered: ruby.Render(diff),
	})
}

// previewWeaveRequest is the body for POST /v1/preview/weave. When pairs is
// empty and the language has a registered segmenter, readings come from
// morphological analysis.
type previewWeaveRequest struct {
	Text     string             `json:"text"`
	Language string             `json:"language"`
	Pairs    []ruby.ReadingPair `json:"pairs"`
}

// previewWeaveResponse carries the woven markup in both forms.
type previewWeaveResponse struct {
	Annotated string `json:"annotated"`
	Rendered  string `json:"rendered"`
}

// handlePreviewWeave weaves reading annotations into a text without
// touching the store.
func (s *Server) handlePreviewWeave(w http.ResponseWriter, r *http.Request) {
	var req previewWeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	ann := s.annotator(req.Language)
	pairs := req.Pairs
	if len(pairs) == 0 && ann != nil {
		pairs = ann.ReadingPairs(req.Text)
	}
	var seg ruby.Segmenter = ann
	if ann == nil {
		// Whole-text matching still lets clients annotate exact surfaces.
		seg = segment.Passthrough{}
	}

	woven := ruby.Weave(req.Text, pairs, seg)
	writeJSON(w, http.StatusOK, previewWeaveResponse{
		Annotated: woven,
		Rendered:  ruby.Render(woven),
	})
}
