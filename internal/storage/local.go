package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var errEmptyKey = errors.New("storage: empty key")

// Local stores objects under BaseDir and serves them below URLPrefix.
type Local struct {
	BaseDir   string
	URLPrefix string
}

func NewLocal(baseDir, urlPrefix string) *Local {
	return &Local{BaseDir: baseDir, URLPrefix: urlPrefix}
}

// Put writes to a temp file in the target directory and renames it into
// place, so readers never see a partial export.
func (l *Local) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	if err := ctx.Err(); err != nil {
		return PutResult{}, err
	}
	key, err := cleanKey(objectKey(in))
	if err != nil {
		return PutResult{}, err
	}

	dst := l.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return PutResult{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return PutResult{}, err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return PutResult{}, fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return PutResult{}, err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return PutResult{}, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return PutResult{}, err
	}

	return PutResult{Key: key, URL: strings.TrimRight(l.URLPrefix, "/") + "/" + key}, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	return os.Remove(l.path(key))
}

func (l *Local) path(key string) string {
	return filepath.Join(l.BaseDir, filepath.FromSlash(key))
}

// cleanKey normalizes key to a slash path that cannot climb out of BaseDir.
func cleanKey(key string) (string, error) {
	k := strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+key)), "/")
	if k == "" || k == "." {
		return "", errEmptyKey
	}
	return k, nil
}

func (l *Local) String() string { return fmt.Sprintf("local(%s)", l.BaseDir) }
