package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/esign-template-backend/interfaces"
)

// StorageBackendFactory creates upload backends from location URIs and
// manages multi-backend configurations for mirrored uploads.
type StorageBackendFactory struct {
	log *slog.Logger
}

var _ interfaces.DocumentBackendFactory = (*StorageBackendFactory)(nil)

// NewStorageBackendFactory creates a new factory instance.
func NewStorageBackendFactory(logger *slog.Logger) *StorageBackendFactory {
	return &StorageBackendFactory{
		log: logger,
	}
}

// BackendFor creates a document backend from a location.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
func (sf *StorageBackendFactory) BackendFor(location interfaces.StorageBackendLocation) (interfaces.DocumentBackend, error) {
	switch strings.ToLower(location.Scheme) {
	case "s3":
		return sf.createS3Backend(location)
	case "file":
		return sf.createFileBackend(location)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme %q", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// CreateMultiBackend creates a multi-storage backend from a list of locations.
// Locations that fail to produce a backend are logged and skipped; an error is
// returned only when none of them is usable.
func (sf *StorageBackendFactory) CreateMultiBackend(locations []interfaces.StorageBackendLocation) (interfaces.DocumentBackend, error) {
	backends := make([]interfaces.DocumentBackend, 0, len(locations))

	for _, location := range locations {
		backend, err := sf.BackendFor(location)
		if err != nil {
			sf.log.Warn("Failed to create storage backend",
				"err", err,
				slog.String("locationURI", location.Redacted()))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid storage backends created")
	}
	if len(backends) == 1 {
		return backends[0], nil
	}

	return NewMultiStorageBackend(backends, sf.log), nil
}

// createS3Backend creates an S3 or S3-compatible storage backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=us-west-2&endpoint=https://minio:9000&path_style=true
// Without embedded credentials the default AWS credential chain is used.
func (sf *StorageBackendFactory) createS3Backend(location interfaces.StorageBackendLocation) (interfaces.DocumentBackend, error) {
	sf.log.Debug("Creating S3 backend", slog.String("uri", location.Redacted()))

	opts := S3Options{
		Bucket:    location.Host,
		Prefix:    strings.TrimPrefix(location.Path, "/"),
		Region:    location.GetParam("region"),
		Endpoint:  location.GetParam("endpoint"),
		PathStyle: location.GetParamBool("path_style"),
	}

	if location.Auth != "" {
		u, err := url.Parse(location.Raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
		}
		opts.AccessKey = u.User.Username()
		opts.SecretKey, _ = u.User.Password()
		sf.log.Debug("Using embedded S3 credentials")
	}

	return NewS3Backend(opts, sf.log)
}

// createFileBackend creates a file system storage backend.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StorageBackendFactory) createFileBackend(location interfaces.StorageBackendLocation) (interfaces.DocumentBackend, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", location.Raw))

	path := location.Path
	if location.Host != "" {
		path = location.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("empty path in file URI: %s", location.Raw)
	}

	return NewFileBackend(path, sf.log)
}
