// Package jsonlite implements the self-describing record store that backs
// a forensicstore container: a relational index with lazily created tables
// and columns, gated by JSON Schema validation, plus the payload-hashing
// content store its records point into.
package jsonlite

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors from spec.md §7's taxonomy. Wrap with fmt.Errorf and %w
// so callers can errors.Is against these.
var (
	// ErrMissingDiscriminator is raised by Insert when a record lacks the
	// discriminator field.
	ErrMissingDiscriminator = errors.New("jsonlite: missing discriminator field")
	// ErrNotFound is raised by Get for an absent uid.
	ErrNotFound = errors.New("jsonlite: item not found")
	// ErrOutOfRoot is raised when a payload path escapes the container root.
	ErrOutOfRoot = errors.New("jsonlite: path escapes container root")
	// ErrSchemaError is raised when a schema $ref cannot be resolved.
	ErrSchemaError = errors.New("jsonlite: schema reference error")
	// ErrClosed is raised by any operation on a closed container.
	ErrClosed = errors.New("jsonlite: store is closed")
	// ErrUnknownColumn is raised by Select when a condition key is not a
	// known column of the target table.
	ErrUnknownColumn = errors.New("jsonlite: unknown column in select condition")
)

// ValidationError is raised when schema validation fails in strict mode,
// or an update would produce an invalid record. It carries the underlying
// JSON Schema validation error descriptions.
type ValidationError struct {
	Type   string
	Causes []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("jsonlite: item of type %q could not be validated: %s", e.Type, strings.Join(e.Causes, "; "))
}

// IntegrityError is raised during a container-wide validation pass. Unlike
// the other error kinds, Validate constructs and renders one of these per
// problem instead of stopping at the first one, aggregating their
// rendered forms into its returned problem list.
type IntegrityError struct {
	Message string
}

func (e *IntegrityError) Error() string {
	return e.Message
}

// NewIntegrityError renders an IntegrityError carrying message to its
// string form, the shape Validate's problem list is made of.
func NewIntegrityError(message string) string {
	return (&IntegrityError{Message: message}).Error()
}

// BackendError wraps an I/O failure from the filesystem backend or the
// index connection.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("jsonlite: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func wrapBackend(op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Err: err}
}
