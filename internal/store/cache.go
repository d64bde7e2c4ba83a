package store

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	content  []byte
	mimeType string
}

// Cached wraps a Store with an LRU read cache. Compiled assets are
// immutable between builds and dominate read traffic, so hits skip the
// inner store entirely. Writes go through and update the cache in place.
type Cached struct {
	inner Store
	cache *lru.Cache[string, cacheEntry]
}

func NewCached(inner Store, size int) (*Cached, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	return &Cached{inner: inner, cache: cache}, nil
}

func cacheKey(project, key string) string {
	return project + "\x00" + key
}

func (c *Cached) Get(ctx context.Context, project, key string) ([]byte, string, error) {
	if entry, ok := c.cache.Get(cacheKey(project, key)); ok {
		return entry.content, entry.mimeType, nil
	}

	content, mimeType, err := c.inner.Get(ctx, project, key)
	if err != nil {
		return nil, "", err
	}
	c.cache.Add(cacheKey(project, key), cacheEntry{content: content, mimeType: mimeType})
	return content, mimeType, nil
}

func (c *Cached) List(ctx context.Context, project, prefix string) ([]KeyInfo, error) {
	return c.inner.List(ctx, project, prefix)
}

func (c *Cached) Store(ctx context.Context, project, key, mimeType string, content []byte) error {
	if err := c.inner.Store(ctx, project, key, mimeType, content); err != nil {
		return err
	}
	c.cache.Add(cacheKey(project, key), cacheEntry{content: content, mimeType: mimeType})
	return nil
}

func (c *Cached) Delete(ctx context.Context, project, key string) error {
	err := c.inner.Delete(ctx, project, key)
	if err == nil {
		c.cache.Remove(cacheKey(project, key))
	}
	return err
}
