package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"docqa-backend/internal/shared/storage/object"
	"docqa-backend/internal/shared/util"
)

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) object.ObjectStore {
	return &Store{baseDir: baseDir}
}

// Upload copies the staged file into the store under a fresh key.
func (s *Store) Upload(ctx context.Context, localPath string, fileName string) (object.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return object.StoredObject{}, err
	}

	if _, err := util.SanitizeFileName(fileName); err != nil {
		return object.StoredObject{}, fmt.Errorf("sanitize file name: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return object.StoredObject{}, fmt.Errorf("open staged file: %w", err)
	}
	defer src.Close()

	key := uuid.NewString() + filepath.Ext(fileName)

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return object.StoredObject{}, fmt.Errorf("mkdir: %w", err)
	}

	fullPath := filepath.Join(s.baseDir, key)
	dst, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return object.StoredObject{}, fmt.Errorf("open target: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return object.StoredObject{}, fmt.Errorf("copy: %w", err)
	}

	abs, err := filepath.Abs(fullPath)
	if err != nil {
		abs = fullPath
	}

	return object.StoredObject{URL: abs, Key: key}, nil
}
