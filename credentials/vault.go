package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
)

// ErrSecretNotFound is returned when the configured Vault path holds no secret.
var ErrSecretNotFound = errors.New("credentials secret not found")

// VaultSource reads provider credentials from a Vault KV v2 secret with
// the keys api_key and client_id.
type VaultSource struct {
	client    *api.Client
	mountPath string
	dataPath  string
	log       *slog.Logger
}

// VaultOptions configures NewVaultSource.
type VaultOptions struct {
	Address string // e.g. https://vault.example.com:8200
	Token   string
	Mount   string // KV v2 mount, e.g. "secret"
	Path    string // secret path within the mount, e.g. "esign/dropbox"
	Timeout time.Duration
}

// NewVaultSource creates a Vault backed credentials source.
func NewVaultSource(opts VaultOptions, log *slog.Logger) (*VaultSource, error) {
	config := api.DefaultConfig()
	if opts.Address != "" {
		config.Address = opts.Address
	}
	if opts.Timeout > 0 {
		config.Timeout = opts.Timeout
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if opts.Token != "" {
		client.SetToken(opts.Token)
	}

	mount := strings.Trim(opts.Mount, "/")
	if mount == "" {
		mount = "secret"
	}
	dataPath := strings.Trim(opts.Path, "/")
	if dataPath == "" {
		return nil, errors.New("vault secret path is required")
	}

	return &VaultSource{
		client:    client,
		mountPath: mount,
		dataPath:  dataPath,
		log:       log,
	}, nil
}

// Fetch reads the secret using the KV v2 path layout {mount}/data/{path}.
func (s *VaultSource) Fetch(ctx context.Context) (Credentials, error) {
	start := time.Now()
	path := fmt.Sprintf("%s/data/%s", s.mountPath, s.dataPath)

	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		s.log.Error("Failed to read from Vault", slog.String("path", path), "err", err)
		return Credentials{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return Credentials{}, fmt.Errorf("%w at %s", ErrSecretNotFound, path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return Credentials{}, fmt.Errorf("invalid data format in Vault response at %s", path)
	}

	creds := Credentials{
		APIKey:   stringValue(data, "api_key"),
		ClientID: stringValue(data, "client_id"),
	}

	s.log.Debug("Fetched credentials from Vault",
		slog.String("path", path),
		slog.Any("credentials", creds),
		slog.Duration("duration", time.Since(start)))

	return creds, nil
}

// Name returns an identifier for logging.
func (s *VaultSource) Name() string {
	return fmt.Sprintf("vault-%s-%s", s.mountPath, s.dataPath)
}

func stringValue(data map[string]interface{}, key string) string {
	v, _ := data[key].(string)
	return v
}
