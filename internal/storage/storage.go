// Package storage provides access to profile files kept on the local
// filesystem or in object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/perf-annotate/pkg/config"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Storage defines the interface for object storage operations.
type Storage interface {
	// Download opens the object at the specified key for reading.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Upload uploads data from reader to the specified key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the URL for the specified key (if applicable).
	GetURL(key string) string
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// NewStorage creates a new Storage instance based on the configuration.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
			Endpoint:  cfg.Endpoint,
		})
	default:
		return NewLocalStorage(cfg.LocalPath), nil
	}
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return fmt.Errorf("storage config is nil")
	}

	storageType := StorageType(cfg.Type)

	// Empty type defaults to local
	if storageType == "" {
		storageType = StorageTypeLocal
	}

	if storageType != StorageTypeCOS && storageType != StorageTypeLocal {
		return fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	if storageType == StorageTypeCOS {
		if cfg.Bucket == "" {
			return fmt.Errorf("COS bucket is required")
		}
		if cfg.Region == "" {
			return fmt.Errorf("COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("COS credentials are required")
		}
	}

	return nil
}

const cosScheme = "cos://"

// Router dispatches profile locations to a backend. A "cos://" location
// always goes to the remote backend, a "file://" location to the local one,
// and a bare location to the default backend.
type Router struct {
	local  Storage
	remote Storage
	def    StorageType
}

// NewRouter creates a router. remote may be nil when no object storage is
// configured.
func NewRouter(local, remote Storage, def StorageType) *Router {
	if local == nil {
		local = NewLocalStorage("")
	}
	if def == "" {
		def = StorageTypeLocal
	}
	return &Router{local: local, remote: remote, def: def}
}

// Resolve returns the backend and key for location.
func (r *Router) Resolve(location string) (Storage, string, error) {
	switch {
	case strings.HasPrefix(location, cosScheme):
		return r.backend(StorageTypeCOS, strings.TrimPrefix(location, cosScheme))
	case strings.HasPrefix(location, "file://"):
		return r.local, strings.TrimPrefix(location, "file://"), nil
	default:
		return r.backend(r.def, location)
	}
}

func (r *Router) backend(t StorageType, key string) (Storage, string, error) {
	if key == "" {
		return nil, "", fmt.Errorf("empty storage key")
	}
	if t == StorageTypeCOS {
		if r.remote == nil {
			return nil, "", fmt.Errorf("object storage is not configured for %s%s", cosScheme, key)
		}
		return r.remote, key, nil
	}
	return r.local, key, nil
}

// Open opens location for reading.
func (r *Router) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	s, key, err := r.Resolve(location)
	if err != nil {
		return nil, err
	}
	return s.Download(ctx, key)
}

// Upload writes data to location.
func (r *Router) Upload(ctx context.Context, location string, reader io.Reader) error {
	s, key, err := r.Resolve(location)
	if err != nil {
		return err
	}
	return s.Upload(ctx, key, reader)
}
