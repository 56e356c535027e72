package schemas

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadReturnsKnownTypes(t *testing.T) {
	docs, err := Load()
	require.NoError(t, err)
	for _, want := range []string{"process", "file", "directory", "windows-registry-key"} {
		require.Contains(t, docs, want)
	}
}
