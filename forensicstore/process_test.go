package forensicstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/forensicstore/internal/jsonlite"
)

func TestProcessItemWithStdoutStderr(t *testing.T) {
	root := filepath.Join(t.TempDir(), "c.store")
	store, err := Create(root, testCfg(), nil)
	require.NoError(t, err)
	defer store.Close()

	uid, err := store.AddProcessItem(ProcessItem{
		Artifact:    "IPTablesRules",
		Name:        "iptables",
		Created:     "2016-01-20T14:11:25.550Z",
		Cwd:         "/root/",
		Arguments:   []string{"-L", "-n", "-v"},
		CommandLine: "/sbin/iptables -L -n -v",
		ReturnCode:  0,
	})
	require.NoError(t, err)

	require.NoError(t, store.AddProcessStdout(uid, func(w *jsonlite.HashedWriter) error {
		_, err := w.Write([]byte("foo"))
		return err
	}))
	require.NoError(t, store.AddProcessStderr(uid, func(w *jsonlite.HashedWriter) error {
		_, err := w.Write([]byte("bar"))
		return err
	}))

	got, err := store.Get(uid)
	require.NoError(t, err)
	require.Equal(t, "IPTablesRules/stdout", got["stdout_path"])
	require.Equal(t, "IPTablesRules/stderr", got["stderr_path"])

	stdout, err := store.LoadFile("IPTablesRules/stdout")
	require.NoError(t, err)
	defer stdout.Close()
}
