// Package docstore provides a small hierarchical document store abstraction.
//
// Documents live under slash-separated paths such as
// "teachers/{id}/lessons/{id}". A path's parent (everything before the final
// segment) acts as the collection for listing and equality queries. Writes are
// whole-document by default; merge writes apply a shallow top-level merge.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNotFound is returned when no document exists at the requested path.
var ErrNotFound = errors.New("document not found")

// Entry pairs a document path with its raw payload.
type Entry struct {
	Path string
	Data json.RawMessage
}

// Store is the hierarchical CRUD contract backing all repositories.
type Store interface {
	// Get returns the raw document at path, or ErrNotFound.
	Get(ctx context.Context, path string) (json.RawMessage, error)

	// Set writes value (any JSON-marshalable) at path. When merge is true the
	// top-level keys of value are merged over the existing document; otherwise
	// the document is replaced.
	Set(ctx context.Context, path string, value interface{}, merge bool) error

	// Delete removes the document at path. Deleting a missing path is a no-op.
	// Child documents are not cascaded; that is the caller's responsibility.
	Delete(ctx context.Context, path string) error

	// Query lists direct children of parent whose documents contain every
	// key/value pair in filter. A nil filter lists the whole collection.
	// Results are ordered by path for determinism.
	Query(ctx context.Context, parent string, filter map[string]interface{}) ([]Entry, error)

	// InTx runs fn against a transactional view of the store. All reads and
	// writes inside fn commit atomically or not at all.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// ParentOf returns the collection path for a document path, or "" for a
// top-level collection segment.
func ParentOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// ValidPath reports whether path looks like a document path: a non-empty even
// number of non-empty segments (collection/id pairs).
func ValidPath(path string) bool {
	if path == "" {
		return false
	}
	segments := strings.Split(path, "/")
	if len(segments)%2 != 0 {
		return false
	}
	for _, s := range segments {
		if s == "" {
			return false
		}
	}
	return true
}
