// Package api exposes the gateway's HTTP surface.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"atelier/internal/agent"
	"atelier/internal/build"
	apperrors "atelier/internal/errors"
	"atelier/internal/logging"
	"atelier/internal/relay"
	"atelier/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handlers carries the gateway's HTTP handlers and their collaborators.
type Handlers struct {
	agent   *agent.Client
	builder build.Builder
	files   *store.Files
	relay   *relay.Relay
	logger  *logging.Logger
}

func NewHandlers(agentClient *agent.Client, builder build.Builder, files *store.Files, logger *logging.Logger) *Handlers {
	return &Handlers{
		agent:   agentClient,
		builder: builder,
		files:   files,
		relay:   relay.New(files, builder, logger.Logger),
		logger:  logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apperrors.Error
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.Code, apiErr)
		return
	}
	h.logger.WithRequestID(r.Context()).Error("unexpected error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, apperrors.Internal("internal server error"))
}

// projectID validates the path's project id.
func projectID(r *http.Request) (string, error) {
	id := r.PathValue("project")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.ValidationError("invalid project id", nil)
	}
	return id, nil
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// CreateRequest is the body for creating or editing an app.
type CreateRequest struct {
	Prompt string `json:"prompt"`
}

// AppResponse is returned by the create and edit endpoints.
type AppResponse struct {
	Summary string   `json:"summary"`
	Files   []string `json:"files"`
	ViewURL string   `json:"view_url"`
}

// HandleCreate generates a new app for the project in one shot.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	project, err := projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.ValidationError("invalid JSON", nil))
		return
	}
	if req.Prompt == "" {
		h.writeError(w, r, apperrors.ValidationError("prompt is required", nil))
		return
	}

	result, err := h.agent.CreateApp(r.Context(), req.Prompt)
	if err != nil {
		h.writeError(w, r, apperrors.Upstream(fmt.Sprintf("agent: %v", err)))
		return
	}

	if err := h.files.StoreApp(r.Context(), project, result.Files, result.CompiledFiles, result.Summary); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, appResponse(project, result))
}

// HandleEdit reworks an existing app from a prompt.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	project, err := projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.ValidationError("invalid JSON", nil))
		return
	}
	if req.Prompt == "" {
		h.writeError(w, r, apperrors.ValidationError("prompt is required", nil))
		return
	}

	existing, err := h.files.SourceFiles(r.Context(), project)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.writeError(w, r, err)
		return
	}
	if len(existing) == 0 {
		h.writeError(w, r, apperrors.NotFound("no app exists for this project"))
		return
	}

	result, err := h.agent.EditApp(r.Context(), req.Prompt, existing)
	if err != nil {
		h.writeError(w, r, apperrors.Upstream(fmt.Sprintf("agent: %v", err)))
		return
	}

	if err := h.files.StoreApp(r.Context(), project, result.Files, result.CompiledFiles, result.Summary); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, appResponse(project, result))
}

func appResponse(project string, result *agent.AppResult) AppResponse {
	fileList := make([]string, 0, len(result.Files))
	for path := range result.Files {
		fileList = append(fileList, path)
	}
	return AppResponse{
		Summary: result.Summary,
		Files:   fileList,
		ViewURL: "/" + project + "/view",
	}
}

// HandleView serves the compiled app's index.html.
func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	project, err := projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	content, mimeType, err := h.files.CompiledFile(r.Context(), project, "index.html")
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, r, apperrors.NotFound("no app generated yet"))
			return
		}
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(RewriteAssetPaths(string(content))))
}

// HandleAsset serves one compiled asset.
func (h *Handlers) HandleAsset(w http.ResponseWriter, r *http.Request) {
	project, err := projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	assetPath := r.PathValue("path")
	if assetPath == "" {
		h.writeError(w, r, apperrors.NotFound("asset not found"))
		return
	}

	content, mimeType, err := h.files.CompiledFile(r.Context(), project, "assets/"+assetPath)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, r, apperrors.NotFound("asset not found"))
			return
		}
		h.writeError(w, r, err)
		return
	}

	// Hashed filenames make compiled assets safe to cache hard.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Type", mimeType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// StateResponse reports what the project currently holds.
type StateResponse struct {
	HasApp       bool            `json:"hasApp"`
	Conversation json.RawMessage `json:"conversation,omitempty"`
	Metadata     *store.Metadata `json:"metadata,omitempty"`
}

// HandleState returns the project's stored state.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	project, err := projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := StateResponse{
		HasApp: h.files.HasApp(r.Context(), project),
	}
	if conversation, err := h.files.Conversation(r.Context(), project); err == nil {
		resp.Conversation = conversation
	}
	if metadata, err := h.files.Metadata(r.Context(), project); err == nil {
		resp.Metadata = metadata
	}

	writeJSON(w, http.StatusOK, resp)
}

// SaveConversationRequest is the body for saving conversation state.
type SaveConversationRequest struct {
	Messages json.RawMessage `json:"messages"`
}

// HandleSaveConversation persists the client's conversation state.
func (h *Handlers) HandleSaveConversation(w http.ResponseWriter, r *http.Request) {
	project, err := projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req SaveConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.ValidationError("invalid JSON", nil))
		return
	}

	if err := h.files.StoreConversation(r.Context(), project, req.Messages); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

var assetPathRe = regexp.MustCompile(`(src|href)=["'](?:\./|/)?(assets/)`)

// RewriteAssetPaths makes asset references in compiled HTML relative, so
// they resolve through the gateway whether the page is served directly or
// behind a proxy prefix.
func RewriteAssetPaths(html string) string {
	return assetPathRe.ReplaceAllString(html, `$1="./assets/`)
}
