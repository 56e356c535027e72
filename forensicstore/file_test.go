package forensicstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/forensicstore/internal/jsonlite"
)

func writeBytes(data string) func(*jsonlite.HashedWriter) error {
	return func(w *jsonlite.HashedWriter) error {
		_, err := w.Write([]byte(data))
		return err
	}
}

func TestDuplicatePayloadNames(t *testing.T) {
	root := filepath.Join(t.TempDir(), "d.store")
	store, err := Create(root, testCfg(), nil)
	require.NoError(t, err)
	defer store.Close()

	newFile := func() string {
		uid, err := store.AddFileItem(FileItem{Artifact: ".", Name: "Amcache.hve"})
		require.NoError(t, err)
		return uid
	}

	uid1 := newFile()
	require.NoError(t, store.AddFileExport(uid1, "", writeBytes("A")))

	uid2 := newFile()
	require.NoError(t, store.AddFileExport(uid2, "", writeBytes("B")))

	uid3 := newFile()
	require.NoError(t, store.AddFileExport(uid3, "Amcache_b.hve", writeBytes("C")))

	uid4 := newFile()
	require.NoError(t, store.AddFileExport(uid4, "Amcache_b.hve", writeBytes("D")))

	got1, err := store.Get(uid1)
	require.NoError(t, err)
	require.Equal(t, "Amcache.hve", got1["export_path"])

	got2, err := store.Get(uid2)
	require.NoError(t, err)
	require.Equal(t, "Amcache_0.hve", got2["export_path"])

	got3, err := store.Get(uid3)
	require.NoError(t, err)
	require.Equal(t, "Amcache_b.hve", got3["export_path"])

	got4, err := store.Get(uid4)
	require.NoError(t, err)
	require.Equal(t, "Amcache_b_0.hve", got4["export_path"])
}
