package storage

import (
	"errors"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidKey = errors.New("invalid asset key")

// FSStore reads assets from a local directory. Offline deployments mount the
// campaign's asset bundle there; the key namespace never escapes the base.
type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./assets"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

func (s *FSStore) Open(key string) (io.ReadCloser, string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return nil, "", ErrInvalidKey
	}
	f, err := os.Open(filepath.Join(s.base, clean))
	if err != nil {
		return nil, "", err
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		return nil, "", ErrInvalidKey
	}
	ctype := mime.TypeByExtension(strings.ToLower(filepath.Ext(clean)))
	return f, ctype, nil
}
