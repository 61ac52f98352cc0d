package flags

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/ruteri/esign-template-backend/api"
	"github.com/ruteri/esign-template-backend/common"
	"github.com/ruteri/esign-template-backend/credentials"
	"github.com/ruteri/esign-template-backend/httpserver"
	"github.com/ruteri/esign-template-backend/interfaces"
	"github.com/ruteri/esign-template-backend/provider"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

// LoadDotEnv loads variables from the given .env files (".env" by default)
// into the process environment. Missing files are ignored and variables
// already set are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("could not load %s: %w", path, err)
		}
	}
	return nil
}

// ConfigFileSource reads flag values from the YAML file named by --config.
// Flags set on the command line or through the environment take precedence.
func ConfigFileSource(flags []cli.Flag) cli.BeforeFunc {
	return altsrc.InitInputSourceWithContext(flags, altsrc.NewYamlSourceFromFlagFunc(ConfigFlag.Name))
}

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *api.HTTPServerConfig {
	return &api.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		CORSAllowedOrigins:       cCtx.StringSlice(CORSAllowedOriginsFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             cCtx.Duration(ProviderTimeoutFlag.Name) + 30*time.Second,
	}
}

// ExplicitCredentials returns the credentials given by flag or environment.
func ExplicitCredentials(cCtx *cli.Context) credentials.Credentials {
	return credentials.Credentials{
		APIKey:   cCtx.String(APIKeyFlag.Name),
		ClientID: cCtx.String(ClientIDFlag.Name),
	}
}

// VaultOptions returns the Vault source settings, or nil when no secret
// path is configured.
func VaultOptions(cCtx *cli.Context) *credentials.VaultOptions {
	path := cCtx.String(VaultPathFlag.Name)
	if path == "" {
		return nil
	}
	return &credentials.VaultOptions{
		Address: cCtx.String(VaultAddrFlag.Name),
		Token:   cCtx.String(VaultTokenFlag.Name),
		Mount:   cCtx.String(VaultMountFlag.Name),
		Path:    path,
		Timeout: 10 * time.Second,
	}
}

func ConfigureProvider(cCtx *cli.Context, creds credentials.Credentials) provider.Config {
	return provider.Config{
		BaseURL:     cCtx.String(ProviderURLFlag.Name),
		Credentials: creds,
		TestMode:    cCtx.Bool(TestModeFlag.Name),
		Timeout:     cCtx.Duration(ProviderTimeoutFlag.Name),
	}
}

func ConfigureHandler(cCtx *cli.Context, creds credentials.Credentials) httpserver.HandlerConfig {
	return httpserver.HandlerConfig{
		MaxUploadSize:  cCtx.Int64(MaxUploadSizeFlag.Name),
		VerifyWebhooks: cCtx.Bool(VerifyWebhooksFlag.Name),
		WebhookAPIKey:  creds.APIKey,
	}
}

// UploadLocations parses every --uploads-location URI.
func UploadLocations(cCtx *cli.Context) ([]interfaces.StorageBackendLocation, error) {
	uris := cCtx.StringSlice(UploadsLocationFlag.Name)
	locations := make([]interfaces.StorageBackendLocation, 0, len(uris))
	for _, uri := range uris {
		location, err := interfaces.NewStorageBackendLocation(uri)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, nil
}

var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	EnvVars: []string{"ESIGN_CONFIG"},
	Usage:   "YAML file with flag values",
}

var ListenAddrFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "listen-addr",
	Value:   "0.0.0.0:8000",
	EnvVars: []string{"LISTEN_ADDR"},
	Usage:   "address to listen on for API",
})

var TemplatesFileFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:  "templates-file",
	Value: "templates.json",
	Usage: "JSON file mapping state codes to template ids",
})
var SignedDocumentsFileFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:  "signed-documents-file",
	Value: "signed_documents.json",
	Usage: "JSON file holding signed document records",
})
var UploadsLocationFlag = altsrc.NewStringSliceFlag(&cli.StringSliceFlag{
	Name:  "uploads-location",
	Value: cli.NewStringSlice("file://./uploads"),
	Usage: "upload storage URI (file:// or s3://), repeat to mirror uploads",
})
var MaxUploadSizeFlag = altsrc.NewInt64Flag(&cli.Int64Flag{
	Name:  "max-upload-size",
	Value: httpserver.DefaultMaxUploadSize,
	Usage: "maximum template upload request size in bytes",
})
var CORSAllowedOriginsFlag = altsrc.NewStringSliceFlag(&cli.StringSliceFlag{
	Name:  "cors-allowed-origin",
	Usage: "origin allowed to call the API, repeatable (default: any origin)",
})

var APIKeyFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "api-key",
	EnvVars: []string{"DROPBOX_SIGN_API_KEY"},
	Usage:   "Dropbox Sign API key",
})
var ClientIDFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "client-id",
	EnvVars: []string{"DROPBOX_SIGN_CLIENT_ID"},
	Usage:   "Dropbox Sign API app client id",
})
var ProviderURLFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:  "provider-url",
	Value: provider.DefaultBaseURL,
	Usage: "Dropbox Sign API base URL",
})
var TestModeFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
	Name:    "test-mode",
	Value:   true,
	EnvVars: []string{"DROPBOX_SIGN_TEST_MODE"},
	Usage:   "create templates and signature requests in provider test mode",
})
var ProviderTimeoutFlag = altsrc.NewDurationFlag(&cli.DurationFlag{
	Name:  "provider-timeout",
	Value: provider.DefaultTimeout,
	Usage: "timeout for provider API calls",
})
var VerifyWebhooksFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
	Name:  "verify-webhooks",
	Value: false,
	Usage: "reject callbacks whose event hash does not match the API key",
})

var VaultAddrFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "credentials-vault-addr",
	EnvVars: []string{"VAULT_ADDR"},
	Usage:   "Vault address to read provider credentials from",
})
var VaultTokenFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:    "credentials-vault-token",
	EnvVars: []string{"VAULT_TOKEN"},
	Usage:   "Vault token",
})
var VaultMountFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:  "credentials-vault-mount",
	Value: "secret",
	Usage: "Vault KV v2 mount",
})
var VaultPathFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:  "credentials-vault-path",
	Usage: "Vault KV v2 secret path holding api_key and client_id",
})

var LogJsonFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
})
var LogDebugFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
})
var LogUidFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
})
var LogServiceFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
})

var PprofFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
})
var DrainSecondsFlag = altsrc.NewInt64Flag(&cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
})
var MetricsAddrFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics, empty to disable",
})

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}

var ProviderFlags = []cli.Flag{
	APIKeyFlag,
	ClientIDFlag,
	ProviderURLFlag,
	TestModeFlag,
	ProviderTimeoutFlag,
	VerifyWebhooksFlag,
	VaultAddrFlag,
	VaultTokenFlag,
	VaultMountFlag,
	VaultPathFlag,
}

var ServerFlags = []cli.Flag{
	ListenAddrFlag,
	TemplatesFileFlag,
	SignedDocumentsFileFlag,
	UploadsLocationFlag,
	MaxUploadSizeFlag,
	CORSAllowedOriginsFlag,
}
