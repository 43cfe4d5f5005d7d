// Package storage archives exported document containers on the local
// filesystem or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when an archived export does not exist
var ErrNotFound = errors.New("export not found")

// Storage archives exported files
type Storage interface {
	// Save stores an export of pieceID and returns its storage path
	Save(ctx context.Context, pieceID, filename string, data io.Reader) (string, error)

	// Open retrieves an export by storage path
	Open(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Remove deletes an export by storage path
	Remove(ctx context.Context, storagePath string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal, "":
		if cfg.LocalPath == "" {
			cfg.LocalPath = "./storage/exports"
		}
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for S3 storage")
		}
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// exportPath builds exports/<piece>/<timestamp>_<filename>
func exportPath(pieceID, filename string, at time.Time) string {
	return path.Join("exports", sanitize(pieceID), fmt.Sprintf("%d_%s", at.UnixNano(), sanitize(filename)))
}

func sanitize(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	r := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "..", "_")
	return r.Replace(name)
}

// cleanPath rejects storage paths that escape the archive root
func cleanPath(storagePath string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(storagePath, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || !strings.HasPrefix(cleaned, "exports/") {
		return "", fmt.Errorf("%w: %s", ErrNotFound, storagePath)
	}
	return cleaned, nil
}
