package forensicstore

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/forensicanalysis/forensicstore/internal/jsonlite"
)

// RegistryKeyItem is a STIX 2.0-flavored Windows Registry Key Object.
type RegistryKeyItem struct {
	Artifact string
	Modified interface{}
	Key      string
	Errors   []string
}

// AddRegistryKeyItem inserts a new registry key record and returns its uid.
func (fs *ForensicStore) AddRegistryKeyItem(item RegistryKeyItem) (string, error) {
	record := jsonlite.Record{
		"artifact": item.Artifact,
		"type":     "windows-registry-key",
		"modified": timeField(item.Modified),
		"key":      item.Key,
		"errors":   toInterfaceSlice(item.Errors),
	}
	return fs.Insert(record)
}

// AddRegistryValueItem decodes data per dataType's Windows registry value
// encoding and appends it to the "values" list of the registry key record
// at keyUID, per spec.md §6's registry value encoding rule:
//   - REG_SZ, REG_EXPAND_SZ: UTF-16 decoded string
//   - REG_DWORD, REG_QWORD: little-endian unsigned integer, rendered decimal
//   - MULTI_SZ: UTF-16 decoded, NUL-separated entries joined with spaces
//   - anything else: hex-dumped as space-separated byte pairs
func (fs *ForensicStore) AddRegistryValueItem(keyUID, dataType string, data []byte, name string) error {
	key, err := fs.Get(keyUID)
	if err != nil {
		return err
	}

	strData, err := decodeRegistryValue(dataType, data)
	if err != nil {
		return err
	}

	var values []interface{}
	if existing, ok := key["values"].([]interface{}); ok {
		values = existing
	}
	values = append(values, jsonlite.Record{
		"data_type": dataType,
		"data":      strData,
		"name":      name,
	})

	_, err = fs.Update(keyUID, jsonlite.Record{"values": values})
	return err
}

func decodeRegistryValue(dataType string, data []byte) (string, error) {
	switch dataType {
	case "REG_SZ", "REG_EXPAND_SZ":
		return decodeUTF16(data), nil
	case "REG_DWORD", "REG_QWORD":
		return fmt.Sprintf("%d", decodeLittleEndianUint(data)), nil
	case "MULTI_SZ":
		decoded := decodeUTF16(data)
		parts := strings.Split(decoded, "\x00")
		return strings.Join(parts, " "), nil
	default:
		return hexPairs(data), nil
	}
}

func decodeUTF16(data []byte) string {
	u16 := make([]uint16, len(data)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(data[i*2 : i*2+2])
	}
	return string(utf16.Decode(u16))
}

func decodeLittleEndianUint(data []byte) uint64 {
	var v uint64
	for i, b := range data {
		v |= uint64(b) << (8 * uint(i))
	}
	return v
}

func hexPairs(data []byte) string {
	hexDigits := "0123456789abcdef"
	pairs := make([]string, len(data))
	for i, b := range data {
		pairs[i] = string([]byte{hexDigits[b>>4], hexDigits[b&0x0f]})
	}
	return strings.Join(pairs, " ")
}
