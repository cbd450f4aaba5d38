package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirStore is a local-filesystem ObjectStore for development and tests.
type DirStore struct {
	root string
}

func NewDirStore(root string) *DirStore {
	if strings.TrimSpace(root) == "" {
		root = os.TempDir()
	}
	return &DirStore{root: root}
}

func (d *DirStore) Put(_ context.Context, key, _ string, body []byte) (string, error) {
	if len(body) == 0 {
		return "", fmt.Errorf("empty archive body")
	}

	path := filepath.Join(d.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", err
	}
	return "file://" + path, nil
}
