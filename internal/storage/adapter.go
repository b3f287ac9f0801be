package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when no object exists at the path. The
// document repository relies on it to tell an unknown document ID apart
// from a backend failure.
var ErrNotFound = errors.New("storage: object not found")

// Adapter is the object store behind the document repository.
//
// Each uploaded book occupies one directory-like prefix:
//
//	documents/<id>/metadata.json  document record as JSON
//	documents/<id>/text.txt       extracted plain text, written once parsing succeeds
//	documents/<id>/raw            the original upload, read back for re-parsing
//
// Paths are slash-separated, relative to the backend root, and never start
// with a slash. Implementations must be safe for concurrent use since
// background parses write while requests read.
type Adapter interface {
	// Put writes the object at path, replacing any previous content
	Put(ctx context.Context, path string, data io.Reader) error

	// Get opens the object at path. The caller closes the reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) (bool, error)

	// List returns every object path under prefix, e.g. "documents/"
	List(ctx context.Context, prefix string) ([]string, error)

	Close() error
}
