package web

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeState struct {
	buffers map[string]string
	saved   []string
}

func (f *fakeState) OpenFile(path string) (string, error) {
	text, ok := f.buffers[path]
	if !ok {
		return "", fmt.Errorf("no such file: %s", path)
	}
	return text, nil
}

func (f *fakeState) ReadBuffer(path string) (string, error) {
	text, ok := f.buffers[path]
	if !ok {
		return "", fmt.Errorf("buffer not open: %s", path)
	}
	return text, nil
}

func (f *fakeState) WriteBuffer(path, text string) error {
	if _, ok := f.buffers[path]; !ok {
		return fmt.Errorf("buffer not open: %s", path)
	}
	f.buffers[path] = text
	return nil
}

func (f *fakeState) SaveFile(path string) error {
	f.saved = append(f.saved, path)
	return nil
}

func (f *fakeState) ListFiles() []string {
	out := make([]string, 0, len(f.buffers))
	for p := range f.buffers {
		out = append(out, p)
	}
	return out
}

func (f *fakeState) GetLanguage(path string) string { return "go" }

func rpc(t *testing.T, s *Server, method string, params any) rpcResponse {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return s.handleRPC(rpcRequest{ID: 1, Method: method, Params: raw})
}

func TestRPCOpenReadWrite(t *testing.T) {
	state := &fakeState{buffers: map[string]string{"a.go": "package a\n"}}
	s := NewServer(state, "/tmp")

	resp := rpc(t, s, "openFile", map[string]string{"path": "a.go"})
	require.Nil(t, resp.Error)
	assert.Equal(t, map[string]string{"text": "package a\n", "language": "go"}, resp.Result)

	resp = rpc(t, s, "writeBuffer", map[string]string{"path": "a.go", "text": "package b\n"})
	require.Nil(t, resp.Error)
	assert.Equal(t, "package b\n", state.buffers["a.go"])

	resp = rpc(t, s, "saveFile", map[string]string{"path": "a.go"})
	require.Nil(t, resp.Error)
	assert.Equal(t, []string{"a.go"}, state.saved)
}

func TestRPCErrors(t *testing.T) {
	s := NewServer(&fakeState{buffers: map[string]string{}}, "/tmp")

	resp := rpc(t, s, "openFile", map[string]string{"path": "missing.go"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)

	resp = s.handleRPC(rpcRequest{ID: 1, Method: "bogus"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}

func TestRPCLineLayout(t *testing.T) {
	state := &fakeState{buffers: map[string]string{
		"a.txt": "short\nthe quick brown fox jumps\nlast",
	}}
	s := NewServer(state, "/tmp")

	resp := rpc(t, s, "lineLayout", map[string]any{
		"path": "a.txt", "line": 1, "width": 10, "tabWidth": 4,
	})
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	runs := result["runs"].([]layoutRun)
	require.Greater(t, len(runs), 1, "a 24-cell line wraps at width 10")
	assert.Equal(t, 0, runs[0].StartCol)
	for _, r := range runs {
		assert.LessOrEqual(t, r.Width, 10)
	}

	resp = rpc(t, s, "lineLayout", map[string]any{"path": "a.txt", "line": 99, "width": 10})
	require.NotNil(t, resp.Error)
}

func TestLineAt(t *testing.T) {
	text := "one\ntwo\nthree"
	for i, want := range []string{"one", "two", "three"} {
		got, ok := lineAt(text, i)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := lineAt(text, 3)
	assert.False(t, ok)
	_, ok = lineAt(text, -1)
	assert.False(t, ok)
}
