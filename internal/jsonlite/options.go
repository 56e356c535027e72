package jsonlite

import "database/sql"

// Options is a cached key/value view of the container's _options table:
// at minimum the discriminator field name and the strict-mode flag
// (spec.md §3, "Options table").
type Options struct {
	db    *sql.DB
	cache map[string]string
}

// NewOptions returns an Options cache backed by db's _options table.
func NewOptions(db *sql.DB) *Options {
	return &Options{db: db, cache: map[string]string{}}
}

// CreateTables creates the _options and _schemas tables. Open calls it
// every time; for an existing index the IF NOT EXISTS clauses make it a
// no-op, so only a fresh index is changed (the fresh -> initialised
// transition, spec.md §4.4.3).
func CreateTables(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS "_options" (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		return wrapBackend("create _options", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS "_schemas" (id TEXT PRIMARY KEY, schema TEXT)`); err != nil {
		return wrapBackend("create _schemas", err)
	}
	return nil
}

// Set stores key=value, skipping the write if the cached value already
// matches (mirrors pyjsonlite's _set_option).
func (o *Options) Set(key, value string) error {
	if cached, ok := o.cache[key]; ok && cached == value {
		return nil
	}
	_, err := o.db.Exec(`INSERT OR REPLACE INTO "_options" ("key", "value") VALUES (?, ?)`, key, value)
	if err != nil {
		return wrapBackend("set option", err)
	}
	o.cache[key] = value
	return nil
}

// Get reads key, reading through to _options on first request.
func (o *Options) Get(key string) (string, error) {
	if v, ok := o.cache[key]; ok {
		return v, nil
	}
	var v string
	err := o.db.QueryRow(`SELECT value FROM "_options" WHERE "key" = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", wrapBackend("get option", err)
	}
	o.cache[key] = v
	return v, nil
}

// Discriminator returns the container-wide discriminator field name.
func (o *Options) Discriminator() (string, error) {
	v, err := o.Get("discriminator")
	if err != nil {
		return "", err
	}
	if v == "" {
		return "type", nil
	}
	return v, nil
}

// SetDiscriminator sets the container-wide discriminator field name.
func (o *Options) SetDiscriminator(name string) error {
	return o.Set("discriminator", name)
}

// Strict reports whether schema validation gates mutation.
func (o *Options) Strict() (bool, error) {
	v, err := o.Get("strict")
	if err != nil {
		return false, err
	}
	return v == "true" || v == "True" || v == "1", nil
}

// SetStrict sets the strict-mode flag.
func (o *Options) SetStrict(strict bool) error {
	if strict {
		return o.Set("strict", "true")
	}
	return o.Set("strict", "false")
}

// Invalidate clears the cache, used on teardown per spec.md §3
// ("Ownership... must be invalidated on teardown").
func (o *Options) Invalidate() {
	o.cache = map[string]string{}
}
