package httpserver

import (
	"encoding/json"
	"errors"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/ruteri/esign-template-backend/api"
	"github.com/ruteri/esign-template-backend/interfaces"
	"github.com/ruteri/esign-template-backend/metrics"
	"github.com/ruteri/esign-template-backend/webhook"
)

const (
	// DefaultMaxUploadSize caps the body of template uploads (64MB).
	DefaultMaxUploadSize = 64 << 20

	// DefaultMaxMultipartMemory is how much of a multipart body is kept in
	// memory before spilling to temporary files (32MB).
	DefaultMaxMultipartMemory = 32 << 20

	// maxJSONBodySize is the maximum allowed JSON request body size (1MB).
	maxJSONBodySize = 1024 * 1024

	maxSanitizeRounds = 8
)

// HandlerConfig tunes request limits and webhook verification.
type HandlerConfig struct {
	MaxUploadSize      int64
	MaxMultipartMemory int64

	// VerifyWebhooks rejects callbacks whose event_hash does not match
	// WebhookAPIKey. Rejected callbacks are still acknowledged.
	VerifyWebhooks bool
	WebhookAPIKey  string
}

// Handler serves the template, signing and webhook endpoints.
type Handler struct {
	provider  interfaces.Provider
	templates interfaces.TemplateStore
	signed    interfaces.SignedDocumentLog
	uploads   interfaces.DocumentBackend
	cfg       HandlerConfig
	sanitizer *bluemonday.Policy
	log       *slog.Logger

	now func() time.Time
}

// NewHandler creates a new HTTP request handler with the specified dependencies.
func NewHandler(provider interfaces.Provider, templates interfaces.TemplateStore, signed interfaces.SignedDocumentLog, uploads interfaces.DocumentBackend, cfg HandlerConfig, log *slog.Logger) *Handler {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DefaultMaxUploadSize
	}
	if cfg.MaxMultipartMemory <= 0 {
		cfg.MaxMultipartMemory = DefaultMaxMultipartMemory
	}

	return &Handler{
		provider:  provider,
		templates: templates,
		signed:    signed,
		uploads:   uploads,
		cfg:       cfg,
		sanitizer: bluemonday.StrictPolicy(),
		log:       log,
		now:       time.Now,
	}
}

// HandleCreateTemplate uploads a document and registers it as a provider
// template for a state code.
//
// URL format: POST /templates/create
// Request body: multipart form with title, subject, message, state_code,
// fields_json and file.
//
// Response: JSON api.CreateTemplateResponse
func (h *Handler) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.cfg.MaxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, interfaces.NewValidationError("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		h.writeError(w, r, &interfaces.Error{Kind: interfaces.KindValidation, Message: "invalid multipart form", Err: err})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	stateCode := strings.TrimSpace(r.FormValue(api.FormStateCode))
	if stateCode == "" {
		h.writeError(w, r, interfaces.NewValidationError("%s is required", api.FormStateCode))
		return
	}

	file, header, err := r.FormFile(api.FormFile)
	if err != nil {
		h.writeError(w, r, interfaces.NewValidationError("%s is required", api.FormFile))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, &interfaces.Error{Kind: interfaces.KindValidation, Message: "could not read uploaded file", Err: err})
		return
	}

	location, err := h.uploads.Store(r.Context(), header.Filename, data)
	if err != nil {
		h.writeError(w, r, interfaces.NewPersistenceError("store uploaded document", err))
		return
	}
	h.log.Info("Stored uploaded document",
		slog.String("file", header.Filename),
		slog.String("location", location),
		slog.Int("size", len(data)))

	fields, err := interfaces.ParseFieldDefinitions([]byte(r.FormValue(api.FormFieldsJSON)))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	templateID, err := h.provider.CreateTemplate(r.Context(),
		interfaces.Document{Name: header.Filename, Data: data},
		fields,
		h.sanitize(r.FormValue(api.FormTitle)),
		h.sanitize(r.FormValue(api.FormSubject)),
		h.sanitize(r.FormValue(api.FormMessage)),
	)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.templates.Put(stateCode, templateID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.log.Info("Template created",
		slog.String("state_code", stateCode),
		slog.String("template_id", templateID),
		slog.Int("fields", len(fields)))

	h.writeJSON(w, http.StatusOK, api.CreateTemplateResponse{
		TemplateID: templateID,
		StateCode:  stateCode,
		File:       header.Filename,
	})
}

// HandleSendWithTemplate starts an embedded signing for one signer.
//
// URL format: POST /templates/send
// Request body: JSON api.SendRequest. The template is taken from template_id,
// or looked up by state_code when template_id is empty.
//
// Response: JSON interfaces.SignatureRequest with signing_url set
func (h *Handler) HandleSendWithTemplate(w http.ResponseWriter, r *http.Request) {
	var req api.SendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodySize))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, r, &interfaces.Error{Kind: interfaces.KindValidation, Message: "invalid JSON body", Err: err})
		return
	}
	if err := interfaces.ValidateStruct(req); err != nil {
		h.writeError(w, r, err)
		return
	}

	templateID := req.TemplateID
	if templateID == "" && req.StateCode != "" {
		templateID, _ = h.templates.Get(req.StateCode)
	}
	if templateID == "" {
		h.writeError(w, r, interfaces.NewNotFoundError("Template not found for the given state or ID"))
		return
	}

	sr, err := h.provider.SendWithTemplate(r.Context(), templateID, req.SignerEmail, req.SignerName, req.CustomFields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.log.Info("Signature request sent",
		slog.String("template_id", templateID),
		slog.String("state_code", req.StateCode),
		slog.String("signature_request_id", sr.SignatureRequestID))

	h.writeJSON(w, http.StatusOK, sr)
}

// HandleGetSignatureRequest returns the provider state of a signature request.
//
// URL format: GET /signature-request/{id}
func (h *Handler) HandleGetSignatureRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		h.writeError(w, r, interfaces.NewValidationError("missing signature request id"))
		return
	}

	sr, err := h.provider.GetSignatureRequest(r.Context(), requestID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, sr)
}

// HandleListTemplates returns the state code to template id mapping.
//
// URL format: GET /templates
func (h *Handler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.templates.List())
}

// HandleListSignedDocuments returns every recorded signing, oldest first.
//
// URL format: GET /signed-documents
func (h *Handler) HandleListSignedDocuments(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.signed.List())
}

// HandleGetSignedDocument returns the local record of one completed signing.
//
// URL format: GET /signed-documents/{id}
func (h *Handler) HandleGetSignedDocument(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")
	doc, ok := h.signed.Get(requestID)
	if !ok {
		h.writeError(w, r, interfaces.NewNotFoundError("No signed document for signature request %s", requestID))
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

// HandleWebhook receives provider callbacks. The event arrives as JSON in
// the "json" field of a urlencoded or multipart form.
//
// URL format: POST /webhook
//
// The reply is always 200 with webhook.Ack, whatever happened while
// processing; the provider retries any other answer.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var eventType string
	outcome := "ignored"

	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("Webhook processing panicked", "panic", rec)
			outcome = "error"
		}
		metrics.ObserveWebhookEvent(webhook.EventTypeLabel(eventType), outcome)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(webhook.Ack))
	}()

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.cfg.MaxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.log.Warn("Could not parse webhook form", "err", err)
		outcome = "invalid"
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	ev, err := webhook.Decode(r.FormValue(webhook.FormField))
	if err != nil {
		h.log.Warn("Could not decode webhook event", "err", err)
		outcome = "invalid"
		return
	}
	eventType = ev.Type()

	if h.cfg.VerifyWebhooks {
		if err := ev.Verify(h.cfg.WebhookAPIKey); err != nil {
			h.log.Warn("Rejected webhook event",
				slog.String("event_type", eventType),
				slog.String("event_time", ev.Event.EventTime),
				"err", err)
			outcome = "rejected"
			return
		}
	}

	if eventType != webhook.EventSignatureRequestSigned {
		h.log.Info("Webhook event received", slog.String("event_type", eventType))
		return
	}

	doc, err := ev.SignedDocument(h.now())
	if err != nil {
		h.log.Warn("Signed event is missing data", "err", err)
		outcome = "invalid"
		return
	}

	inserted, err := h.signed.Append(doc)
	if err != nil {
		h.log.Error("Failed to record signed document",
			slog.String("signature_request_id", doc.SignatureRequestID),
			"err", err)
		outcome = "error"
		return
	}
	if !inserted {
		h.log.Info("Signed document already recorded",
			slog.String("signature_request_id", doc.SignatureRequestID))
		outcome = "duplicate"
		return
	}

	h.log.Info("Recorded signed document",
		slog.String("signature_request_id", doc.SignatureRequestID),
		slog.String("signer_email", doc.SignerEmail))
	outcome = "recorded"
}

// sanitize strips markup from text that ends up in provider emails. Entity
// encoded markup is decoded and stripped again until the text is stable; if
// it does not settle, the policy's escaped output is returned instead.
func (h *Handler) sanitize(s string) string {
	for range maxSanitizeRounds {
		text := html.UnescapeString(h.sanitizer.Sanitize(html.UnescapeString(s)))
		if text == s {
			return strings.TrimSpace(text)
		}
		s = text
	}
	return strings.TrimSpace(h.sanitizer.Sanitize(s))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// writeError logs err with full detail and answers with an api.ErrorResponse.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *interfaces.Error
	if !errors.As(err, &e) {
		e = &interfaces.Error{Kind: interfaces.KindInternal, Message: "internal server error", Err: err}
	}

	detail := e.PublicMessage()
	if e.Kind == interfaces.KindInternal {
		detail = "internal server error"
	}

	status := e.Kind.HTTPStatus()
	requestID := requestIDFromContext(r.Context())

	attrs := []any{
		slog.String("request_id", requestID),
		slog.String("path", r.URL.Path),
		slog.String("kind", string(e.Kind)),
		slog.Int("status", status),
		"err", err,
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", attrs...)
	} else {
		h.log.Warn("Request rejected", attrs...)
	}

	h.writeJSON(w, status, api.ErrorResponse{
		Detail:    detail,
		Kind:      e.Kind,
		RequestID: requestID,
	})
}

