// Package store holds the project store contract and its drivers.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key does not exist for a project.
var ErrNotFound = errors.New("key not found")

// KeyInfo describes one stored key.
type KeyInfo struct {
	Key      string `json:"key"`
	MimeType string `json:"mime_type"`
}

// Store is the project-scoped key/value contract the gateway persists to.
// Keys are opaque strings; callers namespace them by prefix.
type Store interface {
	Get(ctx context.Context, project, key string) ([]byte, string, error)
	List(ctx context.Context, project, prefix string) ([]KeyInfo, error)
	Store(ctx context.Context, project, key, mimeType string, content []byte) error
	Delete(ctx context.Context, project, key string) error
}
