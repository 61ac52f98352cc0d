// Package interfaces defines the shared types and contracts of the e-signature
// template backend, separating interface definitions from implementations.
//
// # Domain Types
//
// FieldDefinition: a positioned form field (text, signature, initials,
// checkbox or date_signed) placed on an uploaded document. Fields are parsed
// from the fields_json form value with ParseFieldDefinitions, which accepts a
// bare array or a {"fields": [...]} object.
//
// SignatureRequest: the normalized provider signature request, carrying the
// embedded signing URL at the top level.
//
// SignedDocument: the local, immutable record written when the provider
// reports a completed signing.
//
// # Component Interfaces
//
// Provider: template creation, embedded signature requests and status lookup
// against the e-signature provider.
//
// TemplateStore and SignedDocumentLog: the two process-wide JSON file stores.
//
// DocumentBackend and DocumentBackendFactory: storage for uploaded documents
// across file:// and s3:// locations.
//
// # Errors
//
// Error carries an ErrorKind (validation_error, not_found, provider_error,
// persistence_error) that the HTTP layer maps to a status code and returns to
// callers as a stable machine-readable kind.
package interfaces
