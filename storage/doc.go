// Package storage keeps copies of the documents uploaded when templates are
// created, using pluggable backends.
//
// Uploads are stored under the file name the client sent, verbatim. A second
// upload with the same name replaces the first.
//
// # Storage URI Format
//
// Storage backends are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file://./uploads (default)
//   - file:///var/lib/esign/uploads/
//   - s3://bucket-name/prefix/?region=us-west-2
//   - s3://ACCESS_KEY:SECRET_KEY@bucket-name/prefix/?endpoint=http://minio:9000&path_style=true
//
// # Multi-Backend Example
//
//	factory := storage.NewStorageBackendFactory(logger)
//	backend, err := factory.CreateMultiBackend(locations)
//	if err != nil {
//	    log.Fatalf("Failed to create upload storage: %v", err)
//	}
//	location, err := backend.Store(ctx, "exemption.pdf", data)
//
// A multi-backend stores to every available backend and reads from the first
// one that has the document.
package storage
