package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestCollectWavFilesWalksDirectories(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.wav"))
	touch(t, filepath.Join(dir, "a.WAV"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "nested", "c.wav"))

	files, err := collectWavFiles([]string{dir})
	require.NoError(t, err)

	expected := []string{
		filepath.Join(dir, "a.WAV"),
		filepath.Join(dir, "b.wav"),
		filepath.Join(dir, "nested", "c.wav"),
	}
	assert.Equal(t, expected, files)
}

func TestCollectWavFilesKeepsExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "one.wav")
	touch(t, wav)

	files, err := collectWavFiles([]string{wav})
	require.NoError(t, err)
	assert.Equal(t, []string{wav}, files)
}

func TestCollectWavFilesMissingPath(t *testing.T) {
	_, err := collectWavFiles([]string{filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
}
