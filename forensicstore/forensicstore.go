// Package forensicstore implements the Container Orchestrator: the
// open/create/close lifecycle, a STIX-flavored domain layer over the
// record index, and bulk import/export through the interchange envelope.
// It corresponds to pyforensicstore.ForensicStore layered on
// pyjsonlite.JSONLite.
package forensicstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forensicanalysis/forensicstore/internal/config"
	"github.com/forensicanalysis/forensicstore/internal/jsonlite"
	"github.com/forensicanalysis/forensicstore/internal/logging"
	"github.com/forensicanalysis/forensicstore/internal/schemas"
)

// Metadata is the container-wide envelope metadata, the STIX
// "observed-data" header pyforensicstore.ForensicStore.__init__ builds and
// carries alongside the record index.
type Metadata struct {
	Type           string `json:"type"`
	ID             string `json:"id"`
	Created        string `json:"created"`
	Modified       string `json:"modified"`
	FirstObserved  string `json:"first_observed"`
	LastObserved   string `json:"last_observed"`
	NumberObserved int    `json:"number_observed"`
}

// ForensicStore is an opened (or freshly created) container: its record
// index, payload store, and envelope metadata.
type ForensicStore struct {
	index    *jsonlite.JSONLite
	Metadata Metadata
	log      logging.Logger
	backend  Backend
	readOnly bool

	// New reports whether Open found no existing index at root and
	// created one fresh (mirrors pyjsonlite.JSONLite.new). Always true
	// after Create.
	New bool
}

// ErrReadOnly is returned by any mutating call on a store opened with
// OpenReadOnly.
var ErrReadOnly = errors.New("forensicstore: store is read-only")

// ErrAlreadyExists is returned by Create when root already contains an
// index file; callers wanting "create or open" semantics should call Open
// instead.
var ErrAlreadyExists = errors.New("forensicstore: container already exists")

// nowFunc is overridable in tests; production code always uses time.Now.
var nowFunc = time.Now

func newMetadata() Metadata {
	now := nowFunc().UTC().Format("2006-01-02T15:04:05.000") + "Z"
	return Metadata{
		Type:           "observed-data",
		ID:             "observed-data--" + uuid.New().String(),
		Created:        now,
		Modified:       now,
		FirstObserved:  now,
		LastObserved:   now,
		NumberObserved: 1,
	}
}

// Create creates a fresh container at root: bootstraps the index tables,
// loads the built-in schema bundle, and applies containerCfg's
// discriminator/strict settings (the [container] table of a parsed
// forensicstore.toml, or config.Default().Container). It fails with
// ErrAlreadyExists if root already contains an index file; callers
// wanting "create or open" semantics should call Open instead.
func Create(root string, containerCfg config.ContainerConfig, log logging.Logger) (*ForensicStore, error) {
	if log == nil {
		log = logging.New(logging.Config{})
	}
	if jsonlite.IndexExists(root) {
		return nil, fmt.Errorf("forensicstore: create %s: %w", root, ErrAlreadyExists)
	}
	if err := jsonlite.EnsureContainerDir(root); err != nil {
		return nil, err
	}

	index, err := jsonlite.Open(root)
	if err != nil {
		return nil, err
	}

	if err := applyContainerConfig(index, containerCfg); err != nil {
		index.Close()
		return nil, err
	}

	docs, err := schemas.Load()
	if err != nil {
		index.Close()
		return nil, err
	}
	if err := index.BootstrapSchemas(docs); err != nil {
		index.Close()
		return nil, err
	}

	log.Info("created container at %s", root)
	return &ForensicStore{index: index, Metadata: newMetadata(), log: log, backend: newLocalBackend(root), New: index.New}, nil
}

// Open opens an existing (or creates a fresh, if absent) container at
// root, applying containerCfg's discriminator/strict settings the same
// way Create does. The local backend mutates item.db in place; there is
// no non-local backend (network access is out of scope), so Open never
// mirrors to a scratch directory, unlike the read-only/remote branch
// pyforensicstore's JSONLite.__init__ takes.
func Open(root string, containerCfg config.ContainerConfig, log logging.Logger) (*ForensicStore, error) {
	if log == nil {
		log = logging.New(logging.Config{})
	}
	index, err := jsonlite.Open(root)
	if err != nil {
		return nil, err
	}

	if err := applyContainerConfig(index, containerCfg); err != nil {
		index.Close()
		return nil, err
	}

	log.Info("opened container at %s", root)
	return &ForensicStore{index: index, Metadata: newMetadata(), log: log, backend: newLocalBackend(root), New: index.New}, nil
}

// OpenReadOnly opens an existing container the same way Open does, but
// rejects every mutating call with ErrReadOnly. It mirrors the
// read_only constructor argument pyjsonlite.JSONLite.__init__ accepts;
// since this engine's only Backend is local, "read-only" is enforced at
// the call boundary rather than by mirroring the index to a scratch
// directory.
func OpenReadOnly(root string, containerCfg config.ContainerConfig, log logging.Logger) (*ForensicStore, error) {
	store, err := Open(root, containerCfg, log)
	if err != nil {
		return nil, err
	}
	store.readOnly = true
	return store, nil
}

// Backend returns the filesystem seam this container operates through.
func (fs *ForensicStore) Backend() Backend {
	return fs.backend
}

// Close flushes and closes the underlying index connection.
func (fs *ForensicStore) Close() error {
	fs.log.Info("closing container")
	return fs.index.Close()
}

// Insert stores record, assigning a uid if it doesn't already carry one.
func (fs *ForensicStore) Insert(record jsonlite.Record) (string, error) {
	if fs.readOnly {
		return "", ErrReadOnly
	}
	uid, err := fs.index.Insert(record)
	if err != nil {
		return "", err
	}
	fs.log.Debug("inserted %s", uid)
	return uid, nil
}

// Get returns the record stored under uid.
func (fs *ForensicStore) Get(uid string) (jsonlite.Record, error) {
	return fs.index.Get(uid)
}

// Update merges partial over the record at uid.
func (fs *ForensicStore) Update(uid string, partial jsonlite.Record) (string, error) {
	if fs.readOnly {
		return "", ErrReadOnly
	}
	newUID, err := fs.index.Update(uid, partial)
	if err != nil {
		return "", err
	}
	if newUID != uid {
		fs.log.Debug("moved %s to %s", uid, newUID)
	}
	return newUID, nil
}

// Select returns every record of typeVal matching at least one condition
// group.
func (fs *ForensicStore) Select(typeVal string, conditions []jsonlite.Condition) (*jsonlite.Cursor, error) {
	return fs.index.Select(typeVal, conditions)
}

// All returns every record in the container.
func (fs *ForensicStore) All() (*jsonlite.Cursor, error) {
	return fs.index.All()
}

// Query runs a caller-supplied SQL statement against the index.
func (fs *ForensicStore) Query(sqlText string, args ...interface{}) (*jsonlite.Cursor, error) {
	return fs.index.Query(sqlText, args...)
}

// StoreFile opens a hashing writer for a new payload at relPath.
func (fs *ForensicStore) StoreFile(relPath string) (string, *jsonlite.HashedWriter, error) {
	if fs.readOnly {
		return "", nil, ErrReadOnly
	}
	return fs.index.StoreFile(relPath)
}

// LoadFile opens relPath for reading.
func (fs *ForensicStore) LoadFile(relPath string) (interface {
	Read(p []byte) (int, error)
	Close() error
}, error) {
	return fs.index.LoadFile(relPath)
}

// applyContainerConfig pushes containerCfg's discriminator/strict
// settings into index's option cache, defaulting an empty discriminator
// to "type" the same way config.Parse defaults an un-configured one.
func applyContainerConfig(index *jsonlite.JSONLite, containerCfg config.ContainerConfig) error {
	discriminator := containerCfg.Discriminator
	if discriminator == "" {
		discriminator = "type"
	}
	if err := index.Options.SetDiscriminator(discriminator); err != nil {
		return err
	}
	return index.Options.SetStrict(containerCfg.Strict)
}

func typeMismatch(want, got string) error {
	return fmt.Errorf("forensicstore: expected a %s item, got %s", want, got)
}
