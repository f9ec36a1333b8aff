package schema

import (
	"errors"
	"fmt"
)

// Sentinel errors for the schema store.
var (
	// ErrNotFound is returned when an accessor names a table or column the
	// store does not hold.
	ErrNotFound = errors.New("schema: not found")

	// ErrConnectivity is returned when the gateway cannot be reached while
	// loading.
	ErrConnectivity = errors.New("schema: database unreachable")

	// ErrSchema is returned when the database does not know a table that
	// was listed for loading.
	ErrSchema = errors.New("schema: unknown table")

	// ErrMalformedMetadata is returned when a column comment or metadata
	// row should hold JSON but does not.
	ErrMalformedMetadata = errors.New("schema: malformed metadata")
)

// NotFoundError names the missing table or column.
type NotFoundError struct {
	Table  string
	Column string // empty when the table itself is missing
}

func (e *NotFoundError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema: table %q not found", e.Table)
	}
	return fmt.Sprintf("schema: column %q not found in table %q", e.Column, e.Table)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound returns true if err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// MetadataError records metadata that failed to parse for one column.
type MetadataError struct {
	Table  string
	Column string
	Source string // "comment" or "metadata table"
	Err    error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("schema: malformed metadata in %s of %s.%s: %v", e.Source, e.Table, e.Column, e.Err)
}

// Is reports whether target is ErrMalformedMetadata.
func (e *MetadataError) Is(target error) bool {
	return target == ErrMalformedMetadata
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}
