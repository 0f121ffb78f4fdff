package storage

import (
	"context"
	"fmt"
	"strings"

	"watchtower/internal/config"
)

const (
	// TypeLocal stores captures on the local filesystem.
	TypeLocal = "local"
	// TypeS3 stores captures in Amazon S3 or a compatible backend.
	TypeS3 = "s3"
	// TypeOSS stores captures in Aliyun OSS.
	TypeOSS = "oss"
	// TypeCOS stores captures in Tencent COS.
	TypeCOS = "cos"
	// TypeR2 stores captures in Cloudflare R2.
	TypeR2 = "r2"
	// TypeMinIO stores captures in a MinIO deployment.
	TypeMinIO = "minio"
)

// SaveOptions controls how a backend persists a capture. Category organises
// objects on disk, Extension hints the preferred file extension (without the
// leading dot), and BaseName overrides the generated file base name.
type SaveOptions struct {
	Category  string
	Extension string
	BaseName  string
}

// Storage persists binary captures and returns a backend-relative key that
// serves both as the public-URL suffix and as the deletion handle.
type Storage interface {
	Save(ctx context.Context, data []byte, opts SaveOptions) (string, error)
	Delete(ctx context.Context, key string) error
}

// LocalBaseDirProvider is implemented by drivers exposing a directory that
// can be served directly over HTTP.
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewStorage instantiates the storage backend for the configuration.
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch typeName {
	case "", TypeLocal:
		return NewLocalStorage(cfg.StorageLocalDir)
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	case TypeMinIO:
		return NewMinIOStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}
