package memory

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/chastitela/meta-lv/internal/storage"
)

// Backend keeps objects in memory. Used by tests and by local runs
// that do not care about persistence.
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// New creates an empty in-memory bucket.
func New(baseURL string) *Backend {
	return &Backend{
		objects: make(map[string][]byte),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload stores the object bytes under path.
func (b *Backend) Upload(ctx context.Context, path string, r io.Reader, overwrite bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.objects[path]; exists && !overwrite {
		return storage.ErrObjectExists
	}
	b.objects[path] = data
	return nil
}

// PublicURL maps an object path onto the configured prefix.
func (b *Backend) PublicURL(path string) string {
	return b.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Object returns a stored object's bytes, for tests.
func (b *Backend) Object(path string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[path]
	return data, ok
}
