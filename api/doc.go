/*
Package api holds the wire types and server configuration of the e-signature
template API, and a Go client for it in the clients subpackage.

# Endpoints

  - POST /templates/create - multipart upload of a PDF plus field placements,
    registers a provider template and maps it to a state code
  - POST /templates/send - sends an embedded signature request against a
    template chosen by id or by state code
  - GET /signature-request/{id} - current provider state of a request
  - GET /templates - state code to template id mapping
  - GET /signed-documents - locally recorded completed signings
  - GET /signed-documents/{id} - one recorded signing by signature request id
  - POST /webhook - provider callback, always acknowledged

# Errors

Every non-2xx response carries an ErrorResponse:

	{"detail": "Template not found for the given state or ID", "kind": "not_found", "request_id": "req_..."}

Kind is one of validation_error, not_found, provider_error,
persistence_error or internal_error.
*/
package api
