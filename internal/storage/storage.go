package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by Get when no object exists under the key.
var ErrObjectNotFound = errors.New("object not found in storage")

// Package storage contains file/object storage abstractions and utilities for object stores (S3-compatible).
// Implementations must avoid using local disk and rely on streaming I/O only.

// DefaultPresignExpiry applies when a presign call passes a non-positive duration.
const DefaultPresignExpiry = 15 * time.Minute

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
// Methods use context and streaming readers/writers; no local disk is used.
// There is deliberately no server-side write method: the only ingress path
// for object bytes is the client's direct PUT against a presigned URL.
type Storage interface {
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	// PresignPut returns a time-limited URL allowing a single direct PUT of the object
	// body. The uploader must set the Content-Type header itself.
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)
}
