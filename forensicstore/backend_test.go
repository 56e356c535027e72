package forensicstore

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalBackendRoundtrip(t *testing.T) {
	root := t.TempDir()
	backend := newLocalBackend(root)

	w, err := backend.Create("sub/dir/payload.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	info, err := backend.Stat("sub/dir/payload.bin")
	require.NoError(t, err)
	require.Equal(t, int64(5), info.Size())

	r, err := backend.Open("sub/dir/payload.bin")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, "hello", string(data))

	entries, err := backend.ReadDir("sub/dir")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, backend.Remove("sub/dir/payload.bin"))
	require.NoError(t, backend.RemoveAll("sub"))
}

func TestOpenReadOnlyRejectsMutation(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ro.store")
	store, err := Create(root, testCfg(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := OpenReadOnly(root, testCfg(), nil)
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.Insert(nil)
	require.ErrorIs(t, err, ErrReadOnly)

	_, err = reopened.AddDirectoryItem(DirectoryItem{Path: "C:\\"})
	require.ErrorIs(t, err, ErrReadOnly)
}
