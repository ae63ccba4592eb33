package api

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"

	"github.com/kotoba-app/kotoba/internal/observe"
	"github.com/kotoba-app/kotoba/pkg/ruby"
)

// liveRequest is one draft snapshot sent by the client over the live
// preview channel. Base is the last accepted correction to diff against;
// when empty only the annotation is computed.
type liveRequest struct {
	Text     string `json:"text"`
	Base     string `json:"base,omitempty"`
	Language string `json:"language,omitempty"`
}

// liveResponse is the server's reply to one snapshot.
type liveResponse struct {
	Annotated string `json:"annotated"`
	Diff      string `json:"diff,omitempty"`
	Rendered  string `json:"rendered,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleLivePreview serves GET /v1/preview/live. Each text frame from the
// client is answered with one frame; the connection stays open until the
// client closes it or the request context ends.
func (s *Server) handleLivePreview(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	s.metrics.ActiveLiveSessions.Add(ctx, 1)
	defer s.metrics.ActiveLiveSessions.Add(ctx, -1)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Normal closure and client disconnects both land here.
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				observe.Logger(ctx).Debug("live preview read failed", "error", err)
			}
			return
		}

		var req liveRequest
		resp := liveResponse{}
		if err := json.Unmarshal(data, &req); err != nil {
			resp.Error = "invalid snapshot"
		} else {
			resp = s.livePreview(req)
		}

		out, err := json.Marshal(resp)
		if err != nil {
			return
		}
		if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
			return
		}
	}
}

// livePreview computes one live reply: the draft woven with readings, and,
// when a base text is present, the edit script from base to draft. Both
// sides of the diff are woven with the same reading pairs so annotation
// differences do not show up as edits.
func (s *Server) livePreview(req liveRequest) liveResponse {
	ann := s.annotator(req.Language)

	var pairs []ruby.ReadingPair
	if ann != nil {
		source := req.Base
		if source == "" {
			source = req.Text
		}
		pairs = ann.ReadingPairs(source)
	}

	annotated := ruby.Weave(req.Text, pairs, ann)
	resp := liveResponse{Annotated: annotated}

	if req.Base != "" {
		diff := ruby.Diff(ruby.Weave(req.Base, pairs, ann), annotated)
		resp.Diff = diff
		resp.Rendered = ruby.Render(diff)
	}
	return resp
}
