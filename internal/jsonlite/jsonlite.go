package jsonlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go driver registered under "sqlite"
)

// IndexFileName is the SQLite database file's name inside a container,
// per spec.md §3.
const IndexFileName = "item.db"

// JSONLite is the Record Index plus its two supporting stores (content,
// schema), bound to a single SQLite connection. It mirrors
// pyjsonlite.JSONLite, the in-process half of a forensicstore container;
// the Container Orchestrator (package forensicstore) layers container
// lifecycle and domain helpers on top of it.
type JSONLite struct {
	db      *sql.DB
	closed  bool
	Options *Options
	Schemas *SchemaRegistry
	Content *ContentStore
	store   *Store

	// New reports whether this Open call found no existing index file at
	// root and created one fresh, mirroring pyjsonlite.JSONLite.new.
	New bool
}

// IndexExists reports whether root already contains an index file.
func IndexExists(root string) bool {
	_, err := os.Stat(filepath.Join(root, IndexFileName))
	return err == nil
}

// Open opens (creating if needed) the SQLite index at filepath.Join(root,
// IndexFileName) and binds it to a ContentStore rooted at root. A single
// connection is enforced (SetMaxOpenConns(1)) because SQLite serializes
// writers anyway and the in-memory catalog/option caches are only correct
// under a single concurrent user, per spec.md §5.
func Open(root string) (*JSONLite, error) {
	dbPath := filepath.Join(root, IndexFileName)
	isNew := !IndexExists(root)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, wrapBackend("open index", err)
	}
	db.SetMaxOpenConns(1)

	if err := CreateTables(db); err != nil {
		db.Close()
		return nil, err
	}

	opts := NewOptions(db)
	schemas := NewSchemaRegistry(db)
	store, err := NewStore(db, opts, schemas)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &JSONLite{
		db:      db,
		Options: opts,
		Schemas: schemas,
		Content: NewContentStore(root),
		store:   store,
		New:     isNew,
	}, nil
}

func (j *JSONLite) checkOpen() error {
	if j.closed {
		return ErrClosed
	}
	return nil
}

// Insert stores record, assigning a uid if absent, and returns the uid.
func (j *JSONLite) Insert(record Record) (string, error) {
	if err := j.checkOpen(); err != nil {
		return "", err
	}
	return j.store.Insert(record)
}

// Get returns the record stored under uid.
func (j *JSONLite) Get(uid string) (Record, error) {
	if err := j.checkOpen(); err != nil {
		return nil, err
	}
	return j.store.Get(uid)
}

// Update merges partial over the current record at uid and returns the
// (possibly new, if the discriminator changed) uid.
func (j *JSONLite) Update(uid string, partial Record) (string, error) {
	if err := j.checkOpen(); err != nil {
		return "", err
	}
	return j.store.Update(uid, partial)
}

// Select returns matching records of the given type.
func (j *JSONLite) Select(typeVal string, conditions []Condition) (*Cursor, error) {
	if err := j.checkOpen(); err != nil {
		return nil, err
	}
	return j.store.Select(typeVal, conditions)
}

// All returns every record in the container.
func (j *JSONLite) All() (*Cursor, error) {
	if err := j.checkOpen(); err != nil {
		return nil, err
	}
	return j.store.All()
}

// Query runs a caller-supplied SQL statement against the index.
func (j *JSONLite) Query(sqlText string, args ...interface{}) (*Cursor, error) {
	if err := j.checkOpen(); err != nil {
		return nil, err
	}
	return j.store.Query(sqlText, args...)
}

// Types lists every record type that has a table in the index. A table is
// created by the first insert of its type; a schema registered for a type
// that has never been inserted does not make it appear here.
func (j *JSONLite) Types() ([]string, error) {
	if err := j.checkOpen(); err != nil {
		return nil, err
	}
	return j.store.tableNames()
}

// SetSchema registers schema under name, used by the bootstrap bundle and
// by callers that extend the container with custom record types.
func (j *JSONLite) SetSchema(name string, schema map[string]interface{}) error {
	if err := j.checkOpen(); err != nil {
		return err
	}
	return j.Schemas.Set(name, schema)
}

// ValidateRecord validates record against its own discriminator's schema,
// regardless of whether strict mode is currently on, for use by a
// whole-container validation pass (package forensicstore).
func (j *JSONLite) ValidateRecord(record Record) ([]string, error) {
	if err := j.checkOpen(); err != nil {
		return nil, err
	}
	discriminator, err := j.Options.Discriminator()
	if err != nil {
		return nil, err
	}
	typeVal, ok := record[discriminator].(string)
	if !ok || typeVal == "" {
		return nil, ErrMissingDiscriminator
	}
	return j.Schemas.Validate(stripEmpty(record), typeVal)
}

// BootstrapSchemas loads a bundle of embedded schema documents, keyed by
// the caller's own id, into the schema registry.
func (j *JSONLite) BootstrapSchemas(docs map[string]json.RawMessage) error {
	if err := j.checkOpen(); err != nil {
		return err
	}
	return j.Schemas.Bootstrap(docs)
}

// StoreFile opens a hashing writer for a new payload at relPath (relative
// to the container root), resolving name collisions automatically.
func (j *JSONLite) StoreFile(relPath string) (string, *HashedWriter, error) {
	if err := j.checkOpen(); err != nil {
		return "", nil, err
	}
	return j.Content.Store(relPath)
}

// LoadFile opens relPath for reading.
func (j *JSONLite) LoadFile(relPath string) (fileReader, error) {
	if err := j.checkOpen(); err != nil {
		return nil, err
	}
	return j.Content.Load(relPath)
}

type fileReader = interface {
	Read(p []byte) (n int, err error)
	Close() error
}

// Close flushes option/schema caches and closes the underlying SQLite
// connection. It is safe to call more than once.
func (j *JSONLite) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true
	j.Options.Invalidate()
	j.Schemas.cache = map[string]map[string]interface{}{}
	if err := j.db.Close(); err != nil {
		return wrapBackend("close", err)
	}
	return nil
}

// ensureContainerDir creates root if it does not already exist, used by
// the Container Orchestrator's Create path.
func ensureContainerDir(root string) error {
	info, err := os.Stat(root)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("jsonlite: %s is not a directory", root)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return wrapBackend("stat container root", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return wrapBackend("create container root", err)
	}
	return nil
}

// EnsureContainerDir is the exported form of ensureContainerDir, used by
// package forensicstore's Create.
func EnsureContainerDir(root string) error {
	return ensureContainerDir(root)
}
