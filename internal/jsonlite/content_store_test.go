package jsonlite

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentStoreStoreAndLoad(t *testing.T) {
	root := t.TempDir()
	cs := NewContentStore(root)

	path, w, err := cs.Store("test_data/file.exe")
	require.NoError(t, err)
	require.Equal(t, "test_data/file.exe", path)

	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	hashes := w.Hashes()
	require.Equal(t, "5d41402abc4b2a76b9719d911017c592", hashes["MD5"])
	require.Equal(t, int64(5), w.Size())

	r, err := cs.Load(path)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestContentStoreCollisionSuffix(t *testing.T) {
	root := t.TempDir()
	cs := NewContentStore(root)

	first, w1, err := cs.Store("dup.bin")
	require.NoError(t, err)
	require.NoError(t, w1.Close())

	second, w2, err := cs.Store("dup.bin")
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	require.Equal(t, "dup.bin", first)
	require.Equal(t, "dup_0.bin", second)
}

func TestContentStoreRejectsEscapingPaths(t *testing.T) {
	root := t.TempDir()
	cs := NewContentStore(root)

	_, _, err := cs.Store("../escape.bin")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrOutOfRoot))
}

func TestContentStoreDoubleCloseIsSafe(t *testing.T) {
	root := t.TempDir()
	cs := NewContentStore(root)
	_, w, err := cs.Store("a.bin")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
