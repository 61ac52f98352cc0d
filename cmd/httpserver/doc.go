// Package main (cmd/httpserver) runs the e-signature template API server.
//
// The server stores one Dropbox Sign template per state code, sends
// embedded signature requests against those templates and records
// completed signings reported through the provider webhook. Template
// mappings and signed documents are kept in local JSON files; uploaded
// documents go to one or more storage locations (local directory or S3).
//
// Every flag can also be given in a YAML file passed with --config, and
// provider credentials are read from DROPBOX_SIGN_API_KEY and
// DROPBOX_SIGN_CLIENT_ID (a .env file in the working directory is loaded
// first) or from a Vault KV v2 secret.
//
// Example usage:
//
//	DROPBOX_SIGN_API_KEY=... DROPBOX_SIGN_CLIENT_ID=... esign-server \
//	  --listen-addr 0.0.0.0:8000 \
//	  --uploads-location file://./uploads \
//	  --uploads-location s3://esign-uploads/templates?region=eu-west-1
//
// Reading credentials from Vault:
//
//	esign-server --credentials-vault-addr https://vault:8200 \
//	  --credentials-vault-path esign/dropbox
//
// The server shuts down gracefully on SIGINT/SIGTERM and exposes /livez,
// /readyz, /drain and /undrain, Prometheus metrics on --metrics-addr and
// optionally pprof.
package main
