package interfaces

import (
	"context"
	"io"
)

// ImageStorage is the destination folder tree. Folders and keys are slash separated
// and relative to the storage root.
type ImageStorage interface {
	// EnsureFolder creates folder (and parents) if missing. Idempotent.
	EnsureFolder(ctx context.Context, folder string) error

	// Put writes data as folder/name and returns the written location
	Put(ctx context.Context, folder, name string, data []byte) (string, error)

	// Open opens a stored object by key for reading
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Clear removes every file and folder under the root; the root itself stays
	Clear(ctx context.Context) error
}
