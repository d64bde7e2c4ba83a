package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "atelier/internal/errors"
	"atelier/internal/session"
	"atelier/internal/store"

	"go.uber.org/zap"
)

// HandleChat proxies a streamed chat turn to the agent. The response bytes
// are relayed verbatim while the relay reconstructs file operations from
// them, persists source files as they complete, and runs the build when
// the turn finishes.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	project, err := projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	log := h.logger.WithRequestID(r.Context())

	// Seed the session from the store so edits land on real content.
	existing, err := h.files.SourceFiles(r.Context(), project)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.writeError(w, r, err)
		return
	}
	if existing == nil {
		existing = make(map[string]string)
	}

	originalBody, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, apperrors.ValidationError("failed to read request body", nil))
		return
	}

	// The agent needs the current files alongside the client's messages.
	var bodyData map[string]any
	if err := json.Unmarshal(originalBody, &bodyData); err != nil {
		h.writeError(w, r, apperrors.ValidationError("invalid JSON in request body", nil))
		return
	}
	bodyData["files"] = existing

	modifiedBody, err := json.Marshal(bodyData)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.agent.OpenChat(r.Context(), modifiedBody, r.Header.Get("Accept"))
	if err != nil {
		h.writeError(w, r, apperrors.Upstream("failed to reach agent"))
		return
	}
	defer resp.Body.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, r, apperrors.Internal("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // keep nginx from buffering
	w.WriteHeader(resp.StatusCode)
	flusher.Flush()

	sess := session.New(project, existing, log)
	if err := h.relay.Run(r.Context(), sess, resp.Body, w); err != nil {
		// The stream is already underway; nothing can be sent back.
		log.Warn("chat relay aborted",
			zap.String("project", project),
			zap.Stringer("state", sess.State()),
			zap.Error(err),
		)
		return
	}

	log.Info("chat turn complete",
		zap.String("project", project),
		zap.Int("operations", sess.Ops()),
		zap.Int("edit_misses", sess.EditMisses()),
		zap.Stringer("state", sess.State()),
	)
}
