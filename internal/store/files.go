package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Key namespaces within a project.
const (
	sourcePrefix     = "source/"
	compiledPrefix   = "compiled/"
	metaKey          = "_meta/app.json"
	conversationKey  = "_meta/conversation.json"
	conversationMime = "application/json"
)

// Metadata describes the app stored for a project.
type Metadata struct {
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Summary       string    `json:"summary"`
	SourceFiles   []string  `json:"source_files"`
	CompiledFiles []string  `json:"compiled_files"`
}

// Files is the namespaced view of a project's stored files: source under
// source/, build output under compiled/, bookkeeping under _meta/.
type Files struct {
	store Store
}

func NewFiles(s Store) *Files {
	return &Files{store: s}
}

// SourceFiles returns the project's current source mapping, with the
// namespace prefix stripped. A project with no sources yields an empty map.
func (f *Files) SourceFiles(ctx context.Context, project string) (map[string]string, error) {
	entries, err := f.store.List(ctx, project, sourcePrefix)
	if err != nil {
		return nil, err
	}

	files := make(map[string]string)
	for _, entry := range entries {
		content, _, err := f.store.Get(ctx, project, entry.Key)
		if err != nil {
			return nil, err
		}
		files[strings.TrimPrefix(entry.Key, sourcePrefix)] = string(content)
	}
	return files, nil
}

// StoreSource persists one source file, write-through.
func (f *Files) StoreSource(ctx context.Context, project, path, content string) error {
	return f.store.Store(ctx, project, sourcePrefix+path, MimeType(path), []byte(content))
}

// DeleteSource removes one source file. An already-absent key is fine.
func (f *Files) DeleteSource(ctx context.Context, project, path string) error {
	err := f.store.Delete(ctx, project, sourcePrefix+path)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// CompiledFile returns one file of the project's build output.
func (f *Files) CompiledFile(ctx context.Context, project, path string) ([]byte, string, error) {
	return f.store.Get(ctx, project, compiledPrefix+path)
}

// ReplaceCompiled swaps the project's build output for a fresh one. The
// old output is deleted first so stale assets do not linger.
func (f *Files) ReplaceCompiled(ctx context.Context, project string, compiled map[string]string) error {
	old, err := f.store.List(ctx, project, compiledPrefix)
	if err == nil {
		for _, entry := range old {
			_ = f.store.Delete(ctx, project, entry.Key)
		}
	}

	for path, content := range compiled {
		key := compiledPrefix + path
		if err := f.store.Store(ctx, project, key, MimeType(path), []byte(content)); err != nil {
			return fmt.Errorf("storing compiled %s: %w", path, err)
		}
	}
	return nil
}

// StoreApp persists a full source and compiled mapping plus metadata, used
// by the non-streaming create and edit endpoints.
func (f *Files) StoreApp(ctx context.Context, project string, files, compiled map[string]string, summary string) error {
	createdAt := time.Now().UTC()
	if meta, err := f.Metadata(ctx, project); err == nil {
		createdAt = meta.CreatedAt
	}

	sourceList := make([]string, 0, len(files))
	for path, content := range files {
		if err := f.StoreSource(ctx, project, path, content); err != nil {
			return err
		}
		sourceList = append(sourceList, path)
	}

	if err := f.ReplaceCompiled(ctx, project, compiled); err != nil {
		return err
	}
	compiledList := make([]string, 0, len(compiled))
	for path := range compiled {
		compiledList = append(compiledList, path)
	}

	meta := Metadata{
		CreatedAt:     createdAt,
		UpdatedAt:     time.Now().UTC(),
		Summary:       summary,
		SourceFiles:   sourceList,
		CompiledFiles: compiledList,
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return f.store.Store(ctx, project, metaKey, "application/json", data)
}

// Metadata returns the app metadata for a project.
func (f *Files) Metadata(ctx context.Context, project string) (*Metadata, error) {
	content, _, err := f.store.Get(ctx, project, metaKey)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(content, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// HasApp reports whether an app has been stored for the project.
func (f *Files) HasApp(ctx context.Context, project string) bool {
	_, err := f.Metadata(ctx, project)
	return err == nil
}

// Conversation returns the saved conversation state, if any.
func (f *Files) Conversation(ctx context.Context, project string) (json.RawMessage, error) {
	content, _, err := f.store.Get(ctx, project, conversationKey)
	if err != nil {
		return nil, err
	}
	return content, nil
}

// StoreConversation saves the conversation state.
func (f *Files) StoreConversation(ctx context.Context, project string, messages json.RawMessage) error {
	return f.store.Store(ctx, project, conversationKey, conversationMime, messages)
}
