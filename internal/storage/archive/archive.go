// Package archive stores rendered report artifacts.
package archive

import (
	"context"
	"fmt"

	"github.com/gfranco/carteira/internal/config"
)

// Archive defines the interface for report artifact storage backends
type Archive interface {
	// Store saves a rendered artifact under the given name
	Store(ctx context.Context, name string, data []byte) error

	// Load retrieves a stored artifact
	Load(ctx context.Context, name string) ([]byte, error)

	// List returns all artifact names matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes a stored artifact
	Delete(ctx context.Context, name string) error

	// Exists checks whether an artifact is already stored
	Exists(ctx context.Context, name string) (bool, error)
}

// New builds the archive backend selected by configuration.
func New(cfg config.ArchiveConfig) (Archive, error) {
	switch cfg.Type {
	case "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}
