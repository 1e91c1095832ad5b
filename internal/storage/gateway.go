// Package storage abstracts the object store the pipeline reads from and
// writes to. The core stages only see the Gateway interface; the GCS
// implementation lives alongside it.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Gateway is the object-storage surface consumed by the pipeline stages.
// Paths are object names relative to a bucket fixed at construction.
type Gateway interface {
	// List returns object names under prefix, up to the listing bound.
	List(ctx context.Context, prefix string) ([]string, error)

	// ReadAll reads the full content of an object.
	ReadAll(ctx context.Context, path string) ([]byte, error)

	// Write opens a write handle for an object. The object is not
	// visible until Close returns nil; Close must be called on all
	// paths, including failure.
	Write(ctx context.Context, path, contentType string) (io.WriteCloser, error)

	// Copy duplicates a single object.
	Copy(ctx context.Context, src, dst string) error

	// Compose concatenates the source objects, in order, into dst.
	// The number of sources must not exceed MaxCompose.
	Compose(ctx context.Context, srcs []string, dst, contentType string) error

	// MaxCompose is the provider's arity limit for a single Compose call.
	MaxCompose() int
}

// SplitURI splits a gs://bucket/object URI into bucket and object name.
func SplitURI(uri string) (bucket, object string, err error) {
	const scheme = "gs://"
	if !strings.HasPrefix(uri, scheme) {
		return "", "", fmt.Errorf("not a gs:// URI: %q", uri)
	}
	rest := strings.TrimPrefix(uri, scheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("URI %q must name a bucket and an object", uri)
	}
	return bucket, object, nil
}
