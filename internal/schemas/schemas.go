// Package schemas embeds the built-in record schemas that every fresh
// container is bootstrapped with, mirroring ForensicStore.__init__'s
// os.listdir over its own schemas/ directory.
package schemas

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

//go:embed definitions/*.json
var bundle embed.FS

// Load reads every embedded schema document, keyed by its own "$id", the
// way ForensicStore.__init__ keys self._set_schema(schema["$id"], schema).
func Load() (map[string]json.RawMessage, error) {
	entries, err := bundle.ReadDir("definitions")
	if err != nil {
		return nil, fmt.Errorf("schemas: read bundle: %w", err)
	}

	docs := make(map[string]json.RawMessage, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := bundle.ReadFile(path.Join("definitions", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("schemas: read %s: %w", entry.Name(), err)
		}
		var header struct {
			ID string `json:"$id"`
		}
		if err := json.Unmarshal(raw, &header); err != nil {
			return nil, fmt.Errorf("schemas: parse %s: %w", entry.Name(), err)
		}
		if header.ID == "" {
			return nil, fmt.Errorf("schemas: %s has no $id", entry.Name())
		}
		docs[header.ID] = json.RawMessage(raw)
	}
	return docs, nil
}
