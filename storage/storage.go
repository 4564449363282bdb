package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"turn2law-backend/config"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = eris.New("storage: object not found")

// Storage interface for dataset storage operations
type Storage interface {
	// Upload stores data under key
	Upload(ctx context.Context, key string, data io.Reader) error

	// Download retrieves the object stored under key
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object stored under key
	Delete(ctx context.Context, key string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg config.StorageConfig) (Storage, error) {
	switch StorageType(cfg.Type) {
	case StorageTypeLocal, "":
		localPath := cfg.LocalPath
		if localPath == "" {
			localPath = "./storage/files"
		}
		return NewLocalStorage(localPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, eris.New("storage: s3_bucket is required for S3 storage")
		}
		return NewS3Storage(cfg)
	default:
		return nil, eris.Errorf("storage: unknown storage type: %s", cfg.Type)
	}
}

// DatasetKey generates a unique key for an exported lawyer dataset
func DatasetKey(name string, at time.Time) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	// Sanitize name
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.ReplaceAll(base, "/", "_")
	base = strings.ReplaceAll(base, "\\", "_")
	if base == "" {
		base = "lawyers"
	}

	return fmt.Sprintf("datasets/%s/%s_%s.json", at.UTC().Format("2006/01/02"), base, uuid.NewString()[:8])
}

// contentType determines content type from key
func contentType(key string) string {
	switch path.Ext(key) {
	case ".json":
		return "application/json"
	case ".ndjson", ".jsonl":
		return "application/x-ndjson"
	default:
		return "application/octet-stream"
	}
}
