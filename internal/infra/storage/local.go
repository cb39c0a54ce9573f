package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	domain "github.com/anushka-codergirl/workoutwise/internal/domain/storage"
)

// Local keeps objects as plain files below baseDir, one directory per area.
type Local struct {
	baseDir string
}

func NewLocal(baseDir string) *Local {
	if baseDir == "" {
		baseDir = "."
	}
	return &Local{baseDir: baseDir}
}

func (l *Local) Prepare(ctx context.Context, areas ...string) error {
	for _, area := range areas {
		dir, err := l.path(area)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s directory: %w", area, err)
		}
	}
	return nil
}

func (l *Local) Create(ctx context.Context, key, contentType string) (io.WriteCloser, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	// O_EXCL: never overwrite another request's file
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &syncFile{File: f}, nil
}

func (l *Local) Open(ctx context.Context, key string) (*domain.Object, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, notFound(key, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &domain.Object{ReadCloser: f, Size: st.Size()}, nil
}

func (l *Local) Remove(ctx context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return notFound(key, err)
	}
	return nil
}

func (l *Local) Purge(ctx context.Context, area string) (int, error) {
	dir, err := l.path(area)
	if err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (l *Local) Check(ctx context.Context) error {
	st, err := os.Stat(l.baseDir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", l.baseDir)
	}
	return nil
}

// path maps a slash-separated key onto the filesystem, refusing anything that
// would escape baseDir.
func (l *Local) path(key string) (string, error) {
	if key == "" || path.IsAbs(key) || strings.Contains(key, "\\") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	cleaned := path.Clean(key)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid key %q: path traversal detected", key)
	}
	return filepath.Join(l.baseDir, filepath.FromSlash(cleaned)), nil
}

func notFound(key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", key, domain.ErrNotFound)
	}
	return err
}

// syncFile flushes to disk before closing so a reader opened afterwards sees the whole file.
type syncFile struct {
	*os.File
}

func (f *syncFile) Close() error {
	serr := f.File.Sync()
	if err := f.File.Close(); err != nil {
		return err
	}
	return serr
}
