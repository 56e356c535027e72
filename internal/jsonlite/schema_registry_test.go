package jsonlite

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, CreateTables(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaRegistryUnknownTypeIsPermissive(t *testing.T) {
	db := openTestDB(t)
	r := NewSchemaRegistry(db)

	causes, err := r.Validate(Record{"type": "mystery"}, "mystery")
	require.NoError(t, err)
	require.Empty(t, causes)
}

func TestSchemaRegistrySetAndValidate(t *testing.T) {
	db := openTestDB(t)
	r := NewSchemaRegistry(db)

	schema := map[string]interface{}{
		"$id":      "process",
		"type":     "object",
		"required": []interface{}{"type", "name"},
		"properties": map[string]interface{}{
			"type": map[string]interface{}{"type": "string"},
			"name": map[string]interface{}{"type": "string"},
		},
	}
	require.NoError(t, r.Set("process", schema))

	causes, err := r.Validate(Record{"type": "process", "name": "cmd.exe"}, "process")
	require.NoError(t, err)
	require.Empty(t, causes)

	causes, err = r.Validate(Record{"type": "process"}, "process")
	require.NoError(t, err)
	require.NotEmpty(t, causes)
}

func TestSchemaRegistryCrossDocumentRef(t *testing.T) {
	db := openTestDB(t)
	r := NewSchemaRegistry(db)

	require.NoError(t, r.Set("file", map[string]interface{}{
		"$id":  "file",
		"type": "object",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{"type": "string"},
			"name": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"type", "name"},
	}))
	require.NoError(t, r.Set("process", map[string]interface{}{
		"$id":  "process",
		"type": "object",
		"properties": map[string]interface{}{
			"type":   map[string]interface{}{"type": "string"},
			"binary": map[string]interface{}{"$ref": "jsonlite:file"},
		},
		"required": []interface{}{"type"},
	}))

	causes, err := r.Validate(Record{
		"type":   "process",
		"binary": map[string]interface{}{"type": "file", "name": "cmd.exe"},
	}, "process")
	require.NoError(t, err)
	require.Empty(t, causes)

	causes, err = r.Validate(Record{
		"type":   "process",
		"binary": map[string]interface{}{"type": "file"},
	}, "process")
	require.NoError(t, err)
	require.NotEmpty(t, causes, "binary is missing its required name field")
}
