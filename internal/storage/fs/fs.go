package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chastitela/meta-lv/internal/storage"
)

// Backend stores objects on the local filesystem under a base
// directory and serves them from a static URL prefix. This is the
// default bucket for single-host deployments.
type Backend struct {
	baseDir string
	baseURL string
}

// New creates a filesystem bucket rooted at baseDir. Uploaded objects
// are publicly reachable under baseURL.
func New(baseDir, baseURL string) (*Backend, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("fs storage: base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("fs storage: %w", err)
	}
	return &Backend{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload writes the object to disk, creating parent directories as
// needed.
func (b *Backend) Upload(ctx context.Context, path string, r io.Reader, overwrite bool) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}

	if !overwrite {
		if _, err := os.Stat(full); err == nil {
			return storage.ErrObjectExists
		}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}

	f, err := os.Create(full)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(full)
		return err
	}
	return nil
}

// PublicURL maps an object path onto the static URL prefix.
func (b *Backend) PublicURL(path string) string {
	return b.baseURL + "/" + strings.TrimLeft(path, "/")
}

// BaseDir exposes the root directory so the router can mount it as a
// static file route.
func (b *Backend) BaseDir() string {
	return b.baseDir
}

// resolve 拒绝逃出根目录的路径
func (b *Backend) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if clean == "/" {
		return "", fmt.Errorf("fs storage: empty object path")
	}
	return filepath.Join(b.baseDir, clean), nil
}
