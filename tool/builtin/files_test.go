package builtin

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnwise/turnwise/tool"
)

func newFileRegistry(t *testing.T) (*tool.Registry, string) {
	t.Helper()
	dir := t.TempDir()
	r := tool.NewRegistry()
	require.NoError(t, registerFileTools(r, &Options{BaseDir: dir}))
	return r, dir
}

func TestWriteThenReadFile(t *testing.T) {
	r, _ := newFileRegistry(t)
	ctx := context.Background()

	res := r.Invoke(ctx, "write_file", map[string]any{
		"path":    "notes/today.txt",
		"content": "hello",
	})
	require.True(t, res.Success, res.ErrorText)

	res = r.Invoke(ctx, "read_file", map[string]any{"path": "notes/today.txt"})
	require.True(t, res.Success, res.ErrorText)
	data := res.Data.(map[string]any)
	assert.Equal(t, "hello", data["content"])
}

func TestReadMissingFile(t *testing.T) {
	r, _ := newFileRegistry(t)

	res := r.Invoke(context.Background(), "read_file", map[string]any{"path": "ghost.txt"})
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorText, "File not found")
}

func TestListDirectory(t *testing.T) {
	r, _ := newFileRegistry(t)
	ctx := context.Background()

	for _, name := range []string{"b.txt", "a.txt"} {
		res := r.Invoke(ctx, "write_file", map[string]any{"path": name, "content": "x"})
		require.True(t, res.Success)
	}

	res := r.Invoke(ctx, "list_directory", map[string]any{})
	require.True(t, res.Success, res.ErrorText)
	data := res.Data.(map[string]any)
	assert.Equal(t, []string{"a.txt", "b.txt"}, data["entries"])
}

func TestListMissingDirectory(t *testing.T) {
	r, _ := newFileRegistry(t)

	res := r.Invoke(context.Background(), "list_directory", map[string]any{"path": "nope"})
	assert.False(t, res.Success)
}

func TestSandboxRebasesEscapingPaths(t *testing.T) {
	dir := t.TempDir()
	s := sandboxDir(dir)

	assert.Equal(t, filepath.Join(dir, "a.txt"), s.resolve("a.txt"))
	assert.Equal(t, filepath.Join(dir, "sub", "a.txt"), s.resolve("sub/a.txt"))
	assert.Equal(t, dir, s.resolve(""))
	assert.Equal(t, dir, s.resolve("."))

	// Escape attempts land back inside the sandbox.
	assert.Equal(t, filepath.Join(dir, "passwd"), s.resolve("../../etc/passwd"))
	assert.Equal(t, filepath.Join(dir, "passwd"), s.resolve("/etc/passwd"))
}
