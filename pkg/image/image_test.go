package image

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernel8.img")
	data := []byte{0xde, 0xad, 0xbe, 0xef, 0x00}
	require.NoError(t, os.WriteFile(path, data, 0o600))

	img, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, img.Path)
	require.Equal(t, data, img.Data)
	require.Equal(t, int64(5), img.Size())
	require.Equal(t, Digest(blake2b.Sum256(data)), img.Digest)
	require.Len(t, img.Digest.String(), 64)
	require.Equal(t, img.Digest.String()[:12], img.Digest.Short())
}

func TestLoad_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.img")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	img, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(0), img.Size())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.img"))
	require.ErrorIs(t, err, ErrImageNotFound)

	_, err = Load(dir)
	require.ErrorIs(t, err, ErrNotRegular)
}
