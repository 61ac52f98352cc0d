package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/esign-template-backend/cmd/flags"
	"github.com/ruteri/esign-template-backend/credentials"
	"github.com/ruteri/esign-template-backend/httpserver"
	"github.com/ruteri/esign-template-backend/provider"
	"github.com/ruteri/esign-template-backend/storage"
	"github.com/ruteri/esign-template-backend/store"
	"github.com/urfave/cli/v2"
)

func appFlags() []cli.Flag {
	all := []cli.Flag{flags.ConfigFlag}
	all = append(all, flags.ServerFlags...)
	all = append(all, flags.ProviderFlags...)
	all = append(all, flags.CommonFlags...)
	return all
}

func main() {
	if err := flags.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}

	cliFlags := appFlags()
	app := &cli.App{
		Name:   "esign-server",
		Usage:  "Serve the e-signature template API backed by Dropbox Sign",
		Flags:  cliFlags,
		Before: flags.ConfigFileSource(cliFlags),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	// Resolve provider credentials
	var source credentials.Source
	if opts := flags.VaultOptions(cCtx); opts != nil {
		vault, err := credentials.NewVaultSource(*opts, logger)
		if err != nil {
			logger.Error("Failed to create Vault credentials source", "err", err)
			return err
		}
		source = vault
	}

	ctx, cancel := context.WithTimeout(cCtx.Context, 30*time.Second)
	creds, err := credentials.Resolve(ctx, flags.ExplicitCredentials(cCtx), source, logger)
	cancel()
	if err != nil {
		logger.Error("Failed to resolve provider credentials", "err", err)
		return err
	}

	// Local state
	templates, err := store.NewTemplateStore(cCtx.String(flags.TemplatesFileFlag.Name), logger)
	if err != nil {
		logger.Error("Failed to load template store", "err", err)
		return err
	}
	signed, err := store.NewSignedDocumentLog(cCtx.String(flags.SignedDocumentsFileFlag.Name), logger)
	if err != nil {
		logger.Error("Failed to load signed document log", "err", err)
		return err
	}

	locations, err := flags.UploadLocations(cCtx)
	if err != nil {
		logger.Error("Invalid uploads location", "err", err)
		return err
	}
	uploads, err := storage.NewStorageBackendFactory(logger).CreateMultiBackend(locations)
	if err != nil {
		logger.Error("Failed to create upload storage", "err", err)
		return err
	}

	client := provider.NewClient(flags.ConfigureProvider(cCtx, creds), logger)
	handler := httpserver.NewHandler(client, templates, signed, uploads, flags.ConfigureHandler(cCtx, creds), logger)

	server, err := httpserver.New(flags.ConfigureServer(cCtx, logger), handler)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	logger.Info("Starting server",
		"templates", len(templates.List()),
		"signedDocuments", len(signed.List()),
		"uploads", uploads.Name())
	server.RunInBackground()

	// Wait for termination signal
	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Server shutdown complete")

	return nil
}
