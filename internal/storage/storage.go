package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type PutInput struct {
	// Key is the object name. Empty means a random name with Filename's extension.
	Key         string
	Filename    string
	ContentType string
	Size        int64
}

type PutResult struct {
	Key string
	URL string
}

type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}

func objectKey(in PutInput) string {
	if in.Key != "" {
		return in.Key
	}
	return uuid.NewString() + safeExt(in.Filename)
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv", ".json", ".txt":
		return ext
	default:
		return ""
	}
}
