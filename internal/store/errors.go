// Package store persists run records and the project index under the
// provenance directory and is the single access path to both.
package store

import "errors"

// Sentinel errors for store and resolution operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested run, tag, ordinal, or directory
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguousRef indicates a reference that could name more than one
	// thing and needs an explicit form to resolve.
	ErrAmbiguousRef = errors.New("ambiguous reference")

	// ErrInvalidTag indicates a tag name that fails validation.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrTagExists indicates the tag is already assigned and force was not
	// requested.
	ErrTagExists = errors.New("tag already exists")

	// ErrCorrupt indicates a record or index that exists but cannot be
	// decoded.
	ErrCorrupt = errors.New("corrupt record")
)
