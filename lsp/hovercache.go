package lsp

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// HoverSource answers hover queries; *Client implements it.
type HoverSource interface {
	HoverInfo(ctx context.Context, uri string, pos Position) (*Hover, error)
}

// HoverCache memoizes hover lookups per document position so re-hovering the
// same symbol does not round-trip to the server. Entries expire quickly; any
// document edit invalidates the whole document's entries.
type HoverCache struct {
	source HoverSource
	cache  *gocache.Cache
}

const (
	hoverTTL     = 30 * time.Second
	hoverCleanup = 2 * time.Minute
)

// NewHoverCache wraps a hover source with a memo.
func NewHoverCache(source HoverSource) *HoverCache {
	return &HoverCache{
		source: source,
		cache:  gocache.New(hoverTTL, hoverCleanup),
	}
}

func hoverKey(uri string, pos Position) string {
	return fmt.Sprintf("%s:%d:%d", uri, pos.Line, pos.Character)
}

// Hover returns the hover result for a position, serving repeats from the
// cache. A nil result (no hover information) is cached too.
func (hc *HoverCache) Hover(ctx context.Context, uri string, pos Position) (*Hover, error) {
	key := hoverKey(uri, pos)
	if v, ok := hc.cache.Get(key); ok {
		hover, _ := v.(*Hover)
		return hover, nil
	}

	hover, err := hc.source.HoverInfo(ctx, uri, pos)
	if err != nil {
		return nil, err
	}
	hc.cache.SetDefault(key, hover)
	return hover, nil
}

// InvalidateDocument drops every cached hover for the given document. Called
// on didChange; positions shift under edits so stale entries would lie.
func (hc *HoverCache) InvalidateDocument(uri string) {
	prefix := uri + ":"
	for key := range hc.cache.Items() {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			hc.cache.Delete(key)
		}
	}
}
