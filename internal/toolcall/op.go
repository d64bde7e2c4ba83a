// Package toolcall rebuilds file operations from the fragmented tool call
// events of an agent stream.
package toolcall

import (
	"encoding/json"
	"fmt"

	"atelier/internal/patch"
)

// Op is a file mutation decoded from a completed tool call. The variants
// are Create, Edit and Delete.
type Op interface {
	op()
}

// Create writes a file with full content. Replaying it is idempotent.
type Create struct {
	Path    string
	Content string
}

// Edit patches an existing file with an ordered diff.
type Edit struct {
	Path string
	Diff patch.Diff
}

// Delete removes a file.
type Delete struct {
	Path string
}

func (Create) op() {}
func (Edit) op()   {}
func (Delete) op() {}

// DecodeFunc turns a tool call's accumulated argument JSON into an Op.
type DecodeFunc func(args []byte) (Op, error)

// Registry maps tool names to argument decoders. New tool kinds register
// here without the session code changing.
type Registry map[string]DecodeFunc

// NewRegistry returns a registry with the built-in file tools.
func NewRegistry() Registry {
	return Registry{
		"create_file": decodeCreate,
		"edit_file":   decodeEdit,
		"delete_file": decodeDelete,
	}
}

func (r Registry) Register(name string, fn DecodeFunc) {
	r[name] = fn
}

type createArgs struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

type editArgs struct {
	FilePath string     `json:"file_path"`
	Diff     patch.Diff `json:"diff"`
}

type deleteArgs struct {
	FilePath string `json:"file_path"`
}

func decodeCreate(args []byte) (Op, error) {
	var a createArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("decoding create_file arguments: %w", err)
	}
	return Create{Path: a.FilePath, Content: a.Content}, nil
}

func decodeEdit(args []byte) (Op, error) {
	var a editArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("decoding edit_file arguments: %w", err)
	}
	return Edit{Path: a.FilePath, Diff: a.Diff}, nil
}

func decodeDelete(args []byte) (Op, error) {
	var a deleteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("decoding delete_file arguments: %w", err)
	}
	return Delete{Path: a.FilePath}, nil
}
