package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectExists is returned when an upload without overwrite hits an
// existing object path.
var ErrObjectExists = errors.New("object already exists")

// Bucket is the object-storage collaborator consumed by the media
// upload flow. Implementations store a blob under a caller-chosen path
// and hand back a stable public URL for it.
type Bucket interface {
	// Upload writes the object at path. With overwrite false an
	// existing object at the same path is an error.
	Upload(ctx context.Context, path string, r io.Reader, overwrite bool) error

	// PublicURL returns the public address of an uploaded object.
	PublicURL(path string) string
}
