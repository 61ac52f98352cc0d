package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/esign-template-backend/interfaces"
)

// MultiStorageBackend implements interfaces.DocumentBackend by mirroring
// uploads to several backends and reading from the first one that has them.
type MultiStorageBackend struct {
	backends []interfaces.DocumentBackend
	log      *slog.Logger
}

// NewMultiStorageBackend creates a new multi-storage backend with fallback.
func NewMultiStorageBackend(backends []interfaces.DocumentBackend, logger *slog.Logger) *MultiStorageBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStorageBackend{
		backends: backends,
		log:      logger,
	}
}

// Fetch returns the upload from the first available backend that has it.
func (m *MultiStorageBackend) Fetch(ctx context.Context, name string) ([]byte, error) {
	start := time.Now()
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("document", name))
			continue
		}

		data, err := backend.Fetch(ctx, name)
		if err == nil {
			m.log.Debug("Fetched document",
				slog.String("backend_name", backend.Name()),
				slog.String("document", name),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("document", name),
			"err", err)
	}

	if len(errs) == 0 {
		return nil, interfaces.ErrBackendUnavailable
	}

	joined := errors.Join(errs...)
	m.log.Error("All backends failed to fetch document",
		slog.String("document", name),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return nil, fmt.Errorf("all backends failed to fetch %s: %w", name, joined)
}

// Store saves data to all available backends. It succeeds when at least one
// backend stored the upload and returns that backend's location.
func (m *MultiStorageBackend) Store(ctx context.Context, name string, data []byte) (string, error) {
	start := time.Now()
	var location string
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), interfaces.ErrBackendUnavailable))
			continue
		}

		loc, err := backend.Store(ctx, name, data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Warn("Failed to store to backend",
				slog.String("backend_name", backend.Name()),
				slog.String("document", name),
				"err", err)
			continue
		}

		if location == "" {
			location = loc
		}
	}

	if location == "" {
		m.log.Error("All backends failed to store document",
			slog.String("document", name),
			slog.Int("failed_backends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return "", fmt.Errorf("all backends failed to store %s: %w", name, errors.Join(errs...))
	}

	m.log.Debug("Stored document",
		slog.String("document", name),
		slog.String("location", location),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return location, nil
}

// Available checks if any backend is available.
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend.
func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

// LocationURI builds a combined location URI from all backends.
func (m *MultiStorageBackend) LocationURI() string {
	locations := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}
	return "multi:[" + strings.Join(locations, ",") + "]"
}
