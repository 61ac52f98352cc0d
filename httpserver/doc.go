/*
Package httpserver serves the e-signature template API.

Operators upload a PDF with field placements to register it as a Dropbox Sign
template for a state code. Signing requests are later sent against that
template by id or by state code, and completed signings arrive through the
provider webhook and are recorded locally.

# Endpoints

  - POST /templates/create - Upload a document and register a template
  - POST /templates/send - Send an embedded signature request
  - GET /signature-request/{id} - Look up a signature request
  - GET /templates - List state code to template id mappings
  - GET /signed-documents - List recorded signings
  - GET /signed-documents/{id} - One recorded signing
  - POST /webhook - Provider callback
  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

# Errors

Failures are answered with a JSON body carrying a human readable detail, a
machine readable kind and the request id:

	{"detail": "Template not found for the given state or ID", "kind": "not_found", "request_id": "req_..."}

Validation errors are 400, template lookup misses 404, and provider and
storage failures 500. Storage failures only expose a generic detail; the
cause is logged.

# Webhook

The webhook always answers 200 with "Hello API Event Received". Decoding,
verification and storage errors are logged and swallowed, since the provider
keeps retrying a callback until it sees that answer. Signed events are
recorded once per signature request; redeliveries are ignored.

# Server lifecycle

The server supports graceful shutdown with configurable drain and shutdown
periods. Prometheus metrics are served on a separate listener when a metrics
address is configured.
*/
package httpserver
