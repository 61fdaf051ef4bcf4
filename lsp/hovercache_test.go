package lsp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHoverSource struct {
	calls  int
	result *Hover
}

func (f *fakeHoverSource) HoverInfo(ctx context.Context, uri string, pos Position) (*Hover, error) {
	f.calls++
	return f.result, nil
}

func TestHoverCacheServesRepeats(t *testing.T) {
	src := &fakeHoverSource{result: &Hover{Contents: "doc"}}
	hc := NewHoverCache(src)
	ctx := context.Background()
	pos := Position{Line: 3, Character: 7}

	h, err := hc.Hover(ctx, "file:///a.go", pos)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, HoverContents("doc"), h.Contents)

	_, err = hc.Hover(ctx, "file:///a.go", pos)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "second hover at the same position must hit the cache")

	// A different position misses.
	_, err = hc.Hover(ctx, "file:///a.go", Position{Line: 3, Character: 8})
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestHoverCacheCachesNilResults(t *testing.T) {
	src := &fakeHoverSource{result: nil}
	hc := NewHoverCache(src)
	ctx := context.Background()

	h, err := hc.Hover(ctx, "file:///a.go", Position{})
	require.NoError(t, err)
	assert.Nil(t, h)

	_, err = hc.Hover(ctx, "file:///a.go", Position{})
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "empty hover results are cacheable too")
}

func TestHoverCacheInvalidateDocument(t *testing.T) {
	src := &fakeHoverSource{result: &Hover{Contents: "doc"}}
	hc := NewHoverCache(src)
	ctx := context.Background()

	_, _ = hc.Hover(ctx, "file:///a.go", Position{Line: 1})
	_, _ = hc.Hover(ctx, "file:///b.go", Position{Line: 1})
	require.Equal(t, 2, src.calls)

	hc.InvalidateDocument("file:///a.go")

	_, _ = hc.Hover(ctx, "file:///a.go", Position{Line: 1})
	assert.Equal(t, 3, src.calls, "invalidated document refetches")

	_, _ = hc.Hover(ctx, "file:///b.go", Position{Line: 1})
	assert.Equal(t, 3, src.calls, "other documents keep their entries")
}
