package forensicstore

import (
	"encoding/binary"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

func utf16le(s string) []byte {
	u16 := utf16.Encode([]rune(s))
	out := make([]byte, len(u16)*2)
	for i, v := range u16 {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func TestRegistryValueEncodings(t *testing.T) {
	root := filepath.Join(t.TempDir(), "l.store")
	store, err := Create(root, testCfg(), nil)
	require.NoError(t, err)
	defer store.Close()

	keyUID, err := store.AddRegistryKeyItem(RegistryKeyItem{
		Key: "HKEY_LOCAL_MACHINE\\Software",
	})
	require.NoError(t, err)

	require.NoError(t, store.AddRegistryValueItem(keyUID, "REG_SZ", utf16le("hello"), "greeting"))

	dwordBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(dwordBytes, 42)
	require.NoError(t, store.AddRegistryValueItem(keyUID, "REG_DWORD", dwordBytes, "count"))

	require.NoError(t, store.AddRegistryValueItem(keyUID, "REG_BINARY", []byte{0xDE, 0xAD}, "raw"))

	got, err := store.Get(keyUID)
	require.NoError(t, err)
	values, ok := got["values"].([]interface{})
	require.True(t, ok)
	require.Len(t, values, 3)

	v0 := values[0].(map[string]interface{})
	require.Equal(t, "hello", v0["data"])

	v1 := values[1].(map[string]interface{})
	require.Equal(t, "42", v1["data"])

	v2 := values[2].(map[string]interface{})
	require.Equal(t, "de ad", v2["data"])
}
