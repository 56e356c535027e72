package forensicstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/forensicstore/internal/jsonlite"
)

func TestUpdateTypeChangeMovesTable(t *testing.T) {
	root := filepath.Join(t.TempDir(), "e.store")
	store, err := Create(root, testCfg(), nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.index.Options.SetStrict(false))

	uid := "process--920d7c41-0fef-4cf8-bce2-ead120f6b506"
	_, err = store.Insert(jsonlite.Record{"type": "process", "uid": uid, "name": "cmd.exe"})
	require.NoError(t, err)

	newUID, err := store.Update(uid, jsonlite.Record{"type": "foo"})
	require.NoError(t, err)
	require.Equal(t, "foo--920d7c41-0fef-4cf8-bce2-ead120f6b506", newUID)

	_, err = store.Get(uid)
	require.ErrorIs(t, err, jsonlite.ErrNotFound)

	got, err := store.Get(newUID)
	require.NoError(t, err)
	require.Equal(t, "foo", got["type"])
	require.Equal(t, "cmd.exe", got["name"])
}
