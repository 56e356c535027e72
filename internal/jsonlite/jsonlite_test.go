package jsonlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenCreatesIndexFile(t *testing.T) {
	root := t.TempDir()
	j, err := Open(root)
	require.NoError(t, err)
	defer j.Close()

	require.FileExists(t, filepath.Join(root, IndexFileName))
}

func TestOpenReportsNewOnlyOnFirstCreate(t *testing.T) {
	root := t.TempDir()
	require.False(t, IndexExists(root))

	j, err := Open(root)
	require.NoError(t, err)
	require.True(t, j.New)
	require.NoError(t, j.Close())

	require.True(t, IndexExists(root))

	reopened, err := Open(root)
	require.NoError(t, err)
	defer reopened.Close()
	require.False(t, reopened.New)
}

func TestJSONLiteInsertGetAndClose(t *testing.T) {
	root := t.TempDir()
	j, err := Open(root)
	require.NoError(t, err)

	uid, err := j.Insert(Record{"type": "process", "name": "cmd.exe"})
	require.NoError(t, err)

	got, err := j.Get(uid)
	require.NoError(t, err)
	require.Equal(t, "cmd.exe", got["name"])

	require.NoError(t, j.Close())

	_, err = j.Get(uid)
	require.ErrorIs(t, err, ErrClosed)
	require.NoError(t, j.Close(), "Close must be idempotent")
}

func TestJSONLiteStrictModeRejectsInvalidRecord(t *testing.T) {
	root := t.TempDir()
	j, err := Open(root)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Options.SetStrict(true))
	require.NoError(t, j.SetSchema("process", map[string]interface{}{
		"$id":      "process",
		"type":     "object",
		"required": []interface{}{"type", "name"},
		"properties": map[string]interface{}{
			"type": map[string]interface{}{"type": "string"},
			"name": map[string]interface{}{"type": "string"},
		},
	}))

	_, err = j.Insert(Record{"type": "process"})
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "process", verr.Type)
}

func TestJSONLiteStoreAndLoadFile(t *testing.T) {
	root := t.TempDir()
	j, err := Open(root)
	require.NoError(t, err)
	defer j.Close()

	path, w, err := j.StoreFile("payload/evidence.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := j.LoadFile(path)
	require.NoError(t, err)
	defer r.Close()
}
