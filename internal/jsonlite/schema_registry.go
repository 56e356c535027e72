package jsonlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// schemaRefScheme is the URI scheme used for cross-schema $ref values, per
// spec.md §4.2 ("jsonlite:<type>").
const schemaRefScheme = "jsonlite:"

// SchemaRegistry persists and caches JSON Schema documents, keyed by
// record type, and validates records against them. It delegates $ref
// resolution (both intra-document fragments and the jsonlite: cross-type
// scheme) to gojsonschema's own SchemaLoader registry instead of
// reimplementing a resolver, since gojsonschema already solves exactly
// this problem (spec.md §9, discharged in SPEC_FULL.md §4.2).
type SchemaRegistry struct {
	db    *sql.DB
	cache map[string]map[string]interface{}
}

// NewSchemaRegistry returns a registry backed by the _schemas table of db.
func NewSchemaRegistry(db *sql.DB) *SchemaRegistry {
	return &SchemaRegistry{db: db, cache: map[string]map[string]interface{}{}}
}

// Bootstrap loads the embedded built-in schema bundle into the registry on
// container creation, keyed by each document's own "$id".
func (r *SchemaRegistry) Bootstrap(docs map[string]json.RawMessage) error {
	for id, raw := range docs {
		var schema map[string]interface{}
		if err := json.Unmarshal(raw, &schema); err != nil {
			return fmt.Errorf("jsonlite: bootstrap schema %q: %w", id, err)
		}
		if err := r.Set(id, schema); err != nil {
			return err
		}
	}
	return nil
}

// Set persists schema under name, updating the cache. A no-op write
// (identical to what is already cached) is skipped, mirroring
// pyjsonlite's _set_schema.
func (r *SchemaRegistry) Set(name string, schema map[string]interface{}) error {
	if cached, ok := r.cache[name]; ok && jsonEqual(cached, schema) {
		return nil
	}
	encoded, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("jsonlite: encode schema %q: %w", name, err)
	}
	_, err = r.db.Exec(`INSERT OR REPLACE INTO "_schemas" ("id", "schema") VALUES (?, ?)`, name, string(encoded))
	if err != nil {
		return wrapBackend("set schema", err)
	}
	r.cache[name] = schema
	return nil
}

// Get returns the schema registered for name, reading through to the
// _schemas table on first request. An unknown type returns an empty
// schema (permissive), not an error, per spec.md §4.2.
func (r *SchemaRegistry) Get(name string) (map[string]interface{}, error) {
	if schema, ok := r.cache[name]; ok {
		return schema, nil
	}
	var raw string
	err := r.db.QueryRow(`SELECT schema FROM "_schemas" WHERE "id" = ?`, name).Scan(&raw)
	if err == sql.ErrNoRows {
		return map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, wrapBackend("get schema", err)
	}
	var schema map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		return nil, fmt.Errorf("jsonlite: decode schema %q: %w", name, err)
	}
	r.cache[name] = schema
	return schema, nil
}

// Types lists every registered schema id.
func (r *SchemaRegistry) Types() ([]string, error) {
	rows, err := r.db.Query(`SELECT id FROM "_schemas"`)
	if err != nil {
		return nil, wrapBackend("list schemas", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapBackend("list schemas", err)
		}
		types = append(types, id)
	}
	return types, rows.Err()
}

// Validate validates record against the schema registered for typeName,
// returning a list of human-readable validation causes. An empty,
// non-nil slice means valid. Every other registered type's schema is
// registered under "jsonlite:<type>" first, so $ref values of that form
// resolve across documents.
func (r *SchemaRegistry) Validate(record Record, typeName string) ([]string, error) {
	target, err := r.Get(typeName)
	if err != nil {
		return nil, err
	}
	if len(target) == 0 {
		return []string{}, nil
	}

	types, err := r.Types()
	if err != nil {
		return nil, err
	}

	sl := gojsonschema.NewSchemaLoader()
	for _, t := range types {
		schema, err := r.Get(t)
		if err != nil {
			return nil, err
		}
		if len(schema) == 0 {
			continue
		}
		if err := sl.AddSchema(schemaRefScheme+t, gojsonschema.NewGoLoader(schema)); err != nil {
			return nil, fmt.Errorf("%w: registering %s: %v", ErrSchemaError, t, err)
		}
	}

	compiled, err := sl.Compile(gojsonschema.NewGoLoader(target))
	if err != nil {
		return nil, fmt.Errorf("%w: compiling schema for %s: %v", ErrSchemaError, typeName, err)
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(map[string]interface{}(record)))
	if err != nil {
		return nil, fmt.Errorf("%w: validating %s: %v", ErrSchemaError, typeName, err)
	}
	if result.Valid() {
		return []string{}, nil
	}

	causes := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		causes = append(causes, e.String())
	}
	return causes, nil
}

func jsonEqual(a, b map[string]interface{}) bool {
	ab, err1 := json.Marshal(a)
	bb, err2 := json.Marshal(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return string(ab) == string(bb)
}
