package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// StorageBackendLocation represents URI for an upload storage backend.
type StorageBackendLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname or bucket
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
}

// NewStorageBackendLocation creates a new storage location from a URI string with validation.
func NewStorageBackendLocation(uri string) (StorageBackendLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StorageBackendLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch parsed.Scheme {
	case "file", "s3":
	default:
		return StorageBackendLocation{}, fmt.Errorf("%w: unsupported storage scheme %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return StorageBackendLocation{
		Raw:    uri,
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
	}, nil
}

// String returns the original URI.
func (loc StorageBackendLocation) String() string {
	return loc.Raw
}

// Redacted returns the URI with any embedded password masked.
func (loc StorageBackendLocation) Redacted() string {
	parsed, err := url.Parse(loc.Raw)
	if err != nil {
		return loc.Scheme + "://"
	}
	return parsed.Redacted()
}

// IsFile checks if this is a local file system location.
func (loc StorageBackendLocation) IsFile() bool {
	return loc.Scheme == "file"
}

// IsS3 checks if this is an S3 storage location.
func (loc StorageBackendLocation) IsS3() bool {
	return loc.Scheme == "s3"
}

// GetParam returns a query parameter value.
func (loc StorageBackendLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc StorageBackendLocation) GetParamBool(name string) bool {
	value := strings.ToLower(loc.Query.Get(name))
	return value == "true" || value == "1" || value == "yes"
}

var (
	// ErrDocumentNotFound is returned when a requested upload does not exist in a backend.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// DocumentBackend stores uploaded documents by their client-supplied file name.
type DocumentBackend interface {
	// Store saves data under name, replacing any previous upload with the
	// same name, and returns a location string for logging.
	Store(ctx context.Context, name string, data []byte) (string, error)

	// Fetch retrieves a previously stored upload.
	Fetch(ctx context.Context, name string) ([]byte, error)

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend, without secrets.
	LocationURI() string
}

// DocumentBackendFactory creates upload storage backends.
type DocumentBackendFactory interface {
	// BackendFor creates a backend from a parsed location. Supports file:// and s3://.
	BackendFor(location StorageBackendLocation) (DocumentBackend, error)

	// CreateMultiBackend creates a backend that mirrors uploads to every location.
	CreateMultiBackend(locations []StorageBackendLocation) (DocumentBackend, error)
}
