package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
)

// Local stores images under a root directory on the local filesystem
type Local struct {
	root string
}

var _ interfaces.ImageStorage = (*Local)(nil)

// NewLocal creates the root directory if needed and returns a Local storage
func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, goerr.New("storage root is empty", goerr.T(model.ErrTagStorage))
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create storage root",
			goerr.T(model.ErrTagStorage), goerr.V("root", root))
	}
	return &Local{root: root}, nil
}

// Root returns the root directory
func (s *Local) Root() string {
	return s.root
}

// resolve maps a slash separated key onto the root, rejecting keys that escape it
func (s *Local) resolve(key string) (string, error) {
	rel := filepath.FromSlash(key)
	if rel != "" && rel != "." && !filepath.IsLocal(rel) {
		return "", goerr.New("path escapes storage root",
			goerr.T(model.ErrTagStorage), goerr.V("key", key))
	}
	return filepath.Join(s.root, rel), nil
}

// EnsureFolder creates folder under the root. Existing folders are fine.
func (s *Local) EnsureFolder(ctx context.Context, folder string) error {
	dir, err := s.resolve(folder)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return goerr.Wrap(err, "failed to create folder",
			goerr.T(model.ErrTagStorage), goerr.V("folder", dir))
	}
	logging.From(ctx).Debug("Ensured folder", "folder", dir)
	return nil
}

// Put writes data to folder/name and returns the file path
func (s *Local) Put(ctx context.Context, folder, name string, data []byte) (string, error) {
	if strings.ContainsAny(name, `/\`) {
		return "", goerr.New("file name must not contain a separator", goerr.V("name", name))
	}
	dest, err := s.resolve(filepath.ToSlash(filepath.Join(folder, name)))
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", goerr.Wrap(err, "failed to write image file", goerr.V("path", dest))
	}
	return dest, nil
}

// Open opens the file stored under key
func (s *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open stored file", goerr.V("path", p))
	}
	return f, nil
}

// Clear removes all files and subfolders under the root
func (s *Local) Clear(ctx context.Context) error {
	logger := logging.From(ctx)

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(s.root, 0755)
		}
		return goerr.Wrap(err, "failed to read storage root",
			goerr.T(model.ErrTagStorage), goerr.V("root", s.root))
	}

	for _, entry := range entries {
		p := filepath.Join(s.root, entry.Name())
		if err := os.RemoveAll(p); err != nil {
			return goerr.Wrap(err, "failed to remove entry",
				goerr.T(model.ErrTagStorage), goerr.V("path", p))
		}
	}

	logger.Info("Cleared storage root", "root", s.root, "removed", len(entries))
	return nil
}
