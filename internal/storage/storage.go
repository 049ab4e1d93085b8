// Package storage contains the object storage abstraction used for
// uploaded report files (reports/<id>/...), rendered videos
// (renders/<id>.mp4) and cached map tiles (tiles/z0/...). The server
// backs it with an S3-compatible store; the CLI substitutes a local
// directory.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is wrapped by implementations when the requested object
// does not exist, so callers can treat a cache miss differently from a
// backend failure.
var ErrNotFound = errors.New("storage: object not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set
// to -1 and the implementation will buffer/chunk as supported by the
// backend. ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable object storage client interface. Methods use
// context and streaming readers.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	// A missing object yields an error wrapping ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
