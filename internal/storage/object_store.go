// Package storage wraps the external blob service behind the small put/list
// contract the registration pipeline and image resolver depend on.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotConfigured is returned when the blob store write credential is missing.
// Callers treat it as a configuration fault, distinct from transient upload errors.
var ErrNotConfigured = errors.New("storage: blob store is not configured")

// Object is one stored blob under a prefix.
type Object struct {
	Path string
	URL  string
}

// ObjectStore puts and lists objects at hierarchical string paths.
type ObjectStore interface {
	// Configured reports whether the store has the credentials required for writes.
	Configured() bool
	// Put stores the object publicly at path and returns its public URL.
	Put(ctx context.Context, path string, body io.Reader, contentType string) (string, error)
	// List returns every object whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
}
