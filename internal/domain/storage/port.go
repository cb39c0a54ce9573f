package storage

import (
	"context"
	"errors"
	"io"
)

// Working areas of the ephemeral store. Keys always start with one of them.
const (
	AreaUpload   = "upload"
	AreaDownload = "download"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("object not found")

// Object is a stored file opened for reading.
type Object struct {
	io.ReadCloser
	Size int64
}

// Store port (interface untuk penyimpanan file sementara)
type Store interface {
	// Prepare makes sure the given areas can receive objects.
	Prepare(ctx context.Context, areas ...string) error
	// Create opens a new object for writing. The object is complete once Close returns nil.
	Create(ctx context.Context, key, contentType string) (io.WriteCloser, error)
	Open(ctx context.Context, key string) (*Object, error)
	Remove(ctx context.Context, key string) error
	// Purge removes every object in an area and reports how many were removed.
	Purge(ctx context.Context, area string) (int, error)
	Check(ctx context.Context) error
}

// Sweeper removes objects in the background once the caller is done with them.
type Sweeper interface {
	Sweep(key string)
}
