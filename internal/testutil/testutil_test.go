package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("run")
	assert.Equal(t, "run-1", ids.Next())
	assert.Equal(t, "run-2", ids.Next())

	ids.Reset()
	assert.Equal(t, "run-1", ids.Next())

	assert.Equal(t, "test-1", NewSequentialIDs("").Next())
}

func TestNewSession(t *testing.T) {
	s := NewSession(t)

	rs, err := s.ExecuteFetch(context.Background(), `SELECT cip FROM membres`)
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Len())
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "a", "b"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a", "b", "f.json"), []byte("x"), 0644))

	dst := CopyDir(t, src)
	data, err := os.ReadFile(filepath.Join(dst, "a", "b", "f.json"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestDiscardLogger(t *testing.T) {
	assert.NotPanics(t, func() { DiscardLogger().Info("ignored") })
}
