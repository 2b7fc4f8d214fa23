package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalFS implements Archive on the local filesystem, the default for
// single-host deployments.
type LocalFS struct {
	basePath string
}

// NewLocalFS creates a filesystem archive rooted at basePath.
func NewLocalFS(basePath string) (*LocalFS, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating base path: %w", err)
	}
	return &LocalFS{basePath: basePath}, nil
}

func (l *LocalFS) fullPath(name string) string {
	return filepath.Join(l.basePath, name)
}

func (l *LocalFS) Store(ctx context.Context, name string, data []byte) error {
	fullPath := l.fullPath(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}
	return os.WriteFile(fullPath, data, 0644)
}

func (l *LocalFS) Load(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(l.fullPath(name))
}

func (l *LocalFS) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	searchPath := l.fullPath(prefix)

	err := filepath.Walk(searchPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(l.basePath, path)
			names = append(names, rel)
		}
		return nil
	})

	if os.IsNotExist(err) {
		return []string{}, nil
	}
	return names, err
}

func (l *LocalFS) Delete(ctx context.Context, name string) error {
	return os.Remove(l.fullPath(name))
}

func (l *LocalFS) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(l.fullPath(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}
