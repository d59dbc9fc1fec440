package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlobStore keeps generated media such as barcode images
type BlobStore interface {
	// Save writes data under folder and returns the relative path that was stored
	Save(ctx context.Context, folder, ext string, data []byte) (string, error)
	Delete(ctx context.Context, relPath string) error
	URL(relPath string) string
}

// LocalStore writes blobs below a media root on disk
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("media root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	if baseURL == "" {
		baseURL = "/media/"
	}
	return &LocalStore{root: root, baseURL: baseURL}, nil
}

// GenerateName builds folder/<date>-<uuid>.<ext>
func GenerateName(folder, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return path.Join(folder, fmt.Sprintf("%s-%s.%s", time.Now().Format("20060102"), uuid.NewString(), ext))
}

func (s *LocalStore) Save(ctx context.Context, folder, ext string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel := GenerateName(folder, ext)
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", folder, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return rel, nil
}

// Delete removes a blob; a missing file is not an error
func (s *LocalStore) Delete(ctx context.Context, relPath string) error {
	if relPath == "" {
		return nil
	}
	clean := filepath.Clean("/" + relPath)
	err := os.Remove(filepath.Join(s.root, clean))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(relPath string) string {
	if relPath == "" {
		return ""
	}
	return strings.TrimSuffix(s.baseURL, "/") + "/" + strings.TrimPrefix(relPath, "/")
}

// Root is the directory served under the media URL
func (s *LocalStore) Root() string { return s.root }
