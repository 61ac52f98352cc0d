// Package credentials resolves the Dropbox Sign API key and client id from
// flags, the environment or a HashiCorp Vault KV v2 secret.
package credentials

import (
	"context"
	"fmt"
	"log/slog"
)

// Credentials authenticate calls to the e-signature provider.
type Credentials struct {
	APIKey   string
	ClientID string
}

// LogValue keeps the secrets out of logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("api_key", Redact(c.APIKey)),
		slog.String("client_id", Redact(c.ClientID)),
	)
}

// Complete reports whether both values are set.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.ClientID != ""
}

// Redact renders a secret as its first and last four characters.
// Short secrets are fully masked.
func Redact(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "..." + s[len(s)-4:]
	}
}

// Source is an external store of credentials.
type Source interface {
	Fetch(ctx context.Context) (Credentials, error)
	Name() string
}

// Resolve merges explicit values with the optional source. Explicit values
// (flags or environment) win; the source only fills what is missing.
// Missing values are logged as warnings and do not fail startup.
func Resolve(ctx context.Context, explicit Credentials, source Source, log *slog.Logger) (Credentials, error) {
	creds := explicit

	if source != nil && !creds.Complete() {
		fetched, err := source.Fetch(ctx)
		if err != nil {
			return creds, fmt.Errorf("failed to fetch credentials from %s: %w", source.Name(), err)
		}
		if creds.APIKey == "" {
			creds.APIKey = fetched.APIKey
		}
		if creds.ClientID == "" {
			creds.ClientID = fetched.ClientID
		}
		log.Info("Loaded provider credentials", slog.String("source", source.Name()), slog.Any("credentials", creds))
	}

	if creds.APIKey == "" {
		log.Warn("DROPBOX_SIGN_API_KEY is not set, provider calls will fail")
	}
	if creds.ClientID == "" {
		log.Warn("DROPBOX_SIGN_CLIENT_ID is not set, provider calls will fail")
	}

	return creds, nil
}
