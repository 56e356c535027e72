package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToInfo(t *testing.T) {
	l := New(Config{})
	require.Equal(t, Info, l.GetLevel())
}

func TestSetLevelChangesLevel(t *testing.T) {
	l := New(Config{Level: Warn})
	require.Equal(t, Warn, l.GetLevel())
	l.SetLevel(Debug)
	require.Equal(t, Debug, l.GetLevel())
}

func TestWithFieldsDoesNotPanic(t *testing.T) {
	l := New(Config{}).WithFields(map[string]interface{}{"container": "test.forensicstore"})
	l.Info("opened container")
}

func TestFileLoggerWritesToPath(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{FilePath: dir + "/store.log"})
	l.Info("hello %s", "world")
}
