// Package blob stores processed item photos on the local filesystem.
//
// Layout: <dir>/items/<itemID>.jpg. URLs handed back to the engine are
// the path relative to the store root, which is also what the HTTP layer
// serves under /uploads/. Save is confirmed (synced to disk) before it
// returns, so the engine can treat a successful Save as durable when it
// sequences the upload before the document commit.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is a filesystem-backed image store. Implements engine.ImageStore.
type Store struct {
	dir string
}

// NewStore creates the blob directory tree if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "items"), 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store root, for the HTTP file server.
func (s *Store) Dir() string { return s.dir }

// Save writes the encoded image and returns its relative URL.
func (s *Store) Save(ctx context.Context, itemID string, jpeg []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel := filepath.Join("items", itemID+".jpg")
	abs := filepath.Join(s.dir, rel)

	f, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("create blob %s: %w", rel, err)
	}
	defer f.Close()

	if _, err := f.Write(jpeg); err != nil {
		return "", fmt.Errorf("write blob %s: %w", rel, err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("sync blob %s: %w", rel, err)
	}
	return filepath.ToSlash(rel), nil
}

// Delete removes a stored image. Unknown URLs are not an error; paths
// escaping the store root are rejected.
func (s *Store) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel := filepath.Clean(filepath.FromSlash(url))
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("invalid blob url %q", url)
	}
	err := os.Remove(filepath.Join(s.dir, rel))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", rel, err)
	}
	return nil
}
