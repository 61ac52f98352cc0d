package httpserver

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ruteri/esign-template-backend/api"
	"github.com/ruteri/esign-template-backend/interfaces"
	"github.com/ruteri/esign-template-backend/metrics"
	"github.com/ruteri/esign-template-backend/provider"
	"github.com/ruteri/esign-template-backend/storage"
	"github.com/ruteri/esign-template-backend/store"
	"github.com/ruteri/esign-template-backend/webhook"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	dir       string
	provider  *provider.MockProvider
	templates *store.TemplateStore
	signed    *store.SignedDocumentLog
	server    *Server
}

func newTestEnv(t *testing.T, cfg HandlerConfig) *testEnv {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	templates, err := store.NewTemplateStore(filepath.Join(dir, "state", "templates.json"), logger)
	require.NoError(t, err)
	signed, err := store.NewSignedDocumentLog(filepath.Join(dir, "signed_documents.json"), logger)
	require.NoError(t, err)
	uploads, err := storage.NewFileBackend(filepath.Join(dir, "uploads"), logger)
	require.NoError(t, err)

	mockProvider := new(provider.MockProvider)
	handler := NewHandler(mockProvider, templates, signed, uploads, cfg, logger)
	handler.now = func() time.Time { return fixedNow }

	srv, err := New(&api.HTTPServerConfig{
		ListenAddr: "127.0.0.1:0",
		Log:        logger,
	}, handler)
	require.NoError(t, err)

	return &testEnv{
		dir:       dir,
		provider:  mockProvider,
		templates: templates,
		signed:    signed,
		server:    srv,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func templateUpload(t *testing.T, values map[string]string, fileName string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile(api.FormFile, fileName)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/templates/create", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func webhookRequest(payload string) *http.Request {
	form := url.Values{webhook.FormField: {payload}}
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var errResp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp), w.Body.String())
	assert.True(t, strings.HasPrefix(errResp.RequestID, "req_"), errResp.RequestID)
	assert.Equal(t, errResp.RequestID, w.Header().Get(api.RequestIDHeader))
	return errResp
}

const signatureField = `[{"name":"sig_1","type":"signature","page":0,"x":100,"y":200,"width":50,"height":20}]`

func TestHandleCreateTemplate_Success(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})
	pdf := []byte("%PDF-1.4 exemption")

	env.provider.On("CreateTemplate",
		mock.Anything,
		interfaces.Document{Name: "ny-exemption.pdf", Data: pdf},
		mock.MatchedBy(func(fields []interfaces.FieldDefinition) bool {
			return len(fields) == 1 &&
				fields[0].Name == "sig_1" &&
				fields[0].Type == interfaces.FieldSignature &&
				fields[0].Required &&
				fields[0].SignerRole == interfaces.DefaultSignerRole
		}),
		"NY Exemption", "Please sign", "Tax & fees",
	).Return("c26b8a16784a872da37ea946b9ddec7c1e11dff6", nil)

	w := env.do(templateUpload(t, map[string]string{
		api.FormTitle:      "<b>NY Exemption</b>",
		api.FormSubject:    "Please sign",
		api.FormMessage:    "Tax & fees<script>alert(1)</script>",
		api.FormStateCode:  "NY",
		api.FormFieldsJSON: signatureField,
	}, "ny-exemption.pdf", pdf))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.CreateTemplateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, api.CreateTemplateResponse{
		TemplateID: "c26b8a16784a872da37ea946b9ddec7c1e11dff6",
		StateCode:  "NY",
		File:       "ny-exemption.pdf",
	}, resp)

	id, ok := env.templates.Get("NY")
	assert.True(t, ok)
	assert.Equal(t, "c26b8a16784a872da37ea946b9ddec7c1e11dff6", id)

	stored, err := os.ReadFile(filepath.Join(env.dir, "uploads", "ny-exemption.pdf"))
	require.NoError(t, err)
	assert.Equal(t, pdf, stored)

	env.provider.AssertExpectations(t)
}

func TestHandleCreateTemplate_WrappedFields(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})
	env.provider.On("CreateTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("tmpl_ca", nil)

	w := env.do(templateUpload(t, map[string]string{
		api.FormTitle:      "CA",
		api.FormStateCode:  "CA",
		api.FormFieldsJSON: `{"fields":` + signatureField + `}`,
	}, "ca.pdf", []byte("%PDF")))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id, _ := env.templates.Get("CA")
	assert.Equal(t, "tmpl_ca", id)
}

func TestHandleCreateTemplate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]string
		fileName string
		detail   string
	}{
		{
			name:     "missing state code",
			values:   map[string]string{api.FormFieldsJSON: signatureField},
			fileName: "a.pdf",
			detail:   "state_code is required",
		},
		{
			name:   "missing file",
			values: map[string]string{api.FormStateCode: "NY", api.FormFieldsJSON: signatureField},
			detail: "file is required",
		},
		{
			name:     "malformed fields json",
			values:   map[string]string{api.FormStateCode: "NY", api.FormFieldsJSON: `[{"name":`},
			fileName: "a.pdf",
			detail:   "invalid fields_json",
		},
		{
			name:     "zero width",
			values:   map[string]string{api.FormStateCode: "NY", api.FormFieldsJSON: `[{"name":"s","type":"signature","page":0,"x":1,"y":1,"width":0,"height":20}]`},
			fileName: "a.pdf",
			detail:   "width",
		},
		{
			name:     "duplicate names",
			values:   map[string]string{api.FormStateCode: "NY", api.FormFieldsJSON: `[{"name":"s","page":0,"width":1,"height":1},{"name":"s","page":1,"width":1,"height":1}]`},
			fileName: "a.pdf",
			detail:   "duplicate field name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, HandlerConfig{})

			w := env.do(templateUpload(t, tt.values, tt.fileName, []byte("%PDF")))

			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			errResp := decodeError(t, w)
			assert.Equal(t, interfaces.KindValidation, errResp.Kind)
			assert.Contains(t, errResp.Detail, tt.detail)

			env.provider.AssertNotCalled(t, "CreateTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, env.templates.List())
		})
	}
}

func TestHandleCreateTemplate_NotMultipart(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})

	w := env.do(jsonRequest(t, http.MethodPost, "/templates/create", map[string]string{"state_code": "NY"}))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, interfaces.KindValidation, decodeError(t, w).Kind)
}

func TestHandleCreateTemplate_UploadTooLarge(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{MaxUploadSize: 1024, MaxMultipartMemory: 512})

	w := env.do(templateUpload(t, map[string]string{
		api.FormStateCode:  "NY",
		api.FormFieldsJSON: signatureField,
	}, "big.pdf", bytes.Repeat([]byte("x"), 4096)))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, interfaces.KindValidation, decodeError(t, w).Kind)
	env.provider.AssertNotCalled(t, "CreateTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCreateTemplate_ProviderError(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})
	env.provider.On("CreateTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", interfaces.NewProviderError("Create template", "The file must be a PDF", nil))

	w := env.do(templateUpload(t, map[string]string{
		api.FormStateCode:  "NY",
		api.FormFieldsJSON: signatureField,
	}, "a.txt", []byte("not a pdf")))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	errResp := decodeError(t, w)
	assert.Equal(t, interfaces.KindProvider, errResp.Kind)
	assert.Contains(t, errResp.Detail, "The file must be a PDF")
	assert.Empty(t, env.templates.List())
}

func TestHandleCreateTemplate_PersistenceError(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})
	env.provider.On("CreateTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("tmpl_ny", nil)

	// replace the template store directory with a file so the write fails
	stateDir := filepath.Join(env.dir, "state")
	require.NoError(t, os.RemoveAll(stateDir))
	require.NoError(t, os.WriteFile(stateDir, []byte("blocked"), 0o644))

	w := env.do(templateUpload(t, map[string]string{
		api.FormStateCode:  "NY",
		api.FormFieldsJSON: signatureField,
	}, "ny.pdf", []byte("%PDF")))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	errResp := decodeError(t, w)
	assert.Equal(t, interfaces.KindPersistence, errResp.Kind)
	assert.Equal(t, "internal storage error", errResp.Detail)
	assert.NotContains(t, w.Body.String(), "templates.json")
}

func TestHandleSendWithTemplate_ByStateCode(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})
	require.NoError(t, env.templates.Put("NY", "tmpl_ny"))

	sr := &interfaces.SignatureRequest{
		SignatureRequestID: "fa5c8a0b0f492d768749333ad6fcc214c111e967",
		TemplateIDs:        []string{"tmpl_ny"},
		SigningURL:         "https://embedded.hellosign.com/prep-and-send/embedded-sign?signature_id=sig1",
		Signatures:         []interfaces.Signature{{SignatureID: "sig1", SignerEmailAddress: "jane@example.com", SignerName: "Jane Doe"}},
		Responses:          []interfaces.FieldResponse{},
	}
	customFields := map[string]any{"state": "NY"}
	env.provider.On("SendWithTemplate", mock.Anything, "tmpl_ny", "jane@example.com", "Jane Doe", customFields).Return(sr, nil)

	w := env.do(jsonRequest(t, http.MethodPost, "/templates/send", api.SendRequest{
		StateCode:    "NY",
		SignerEmail:  "jane@example.com",
		SignerName:   "Jane Doe",
		CustomFields: customFields,
	}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, sr.SigningURL, got["signing_url"])
	assert.Equal(t, sr.SignatureRequestID, got["signature_request_id"])

	env.provider.AssertExpectations(t)
}

func TestHandleSendWithTemplate_TemplateIDWins(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})
	require.NoError(t, env.templates.Put("NY", "tmpl_ny"))

	env.provider.On("SendWithTemplate", mock.Anything, "tmpl_explicit", "jane@example.com", "Jane Doe", map[string]any(nil)).
		Return(&interfaces.SignatureRequest{SignatureRequestID: "r1", SigningURL: "https://sign"}, nil)

	w := env.do(jsonRequest(t, http.MethodPost, "/templates/send", api.SendRequest{
		TemplateID:  "tmpl_explicit",
		StateCode:   "NY",
		SignerEmail: "jane@example.com",
		SignerName:  "Jane Doe",
	}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env.provider.AssertExpectations(t)
}

func TestHandleSendWithTemplate_NoTemplate(t *testing.T) {
	tests := []struct {
		name string
		req  api.SendRequest
	}{
		{"unknown state code", api.SendRequest{StateCode: "ZZ", SignerEmail: "jane@example.com", SignerName: "Jane Doe"}},
		{"neither id nor state", api.SendRequest{SignerEmail: "jane@example.com", SignerName: "Jane Doe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, HandlerConfig{})

			w := env.do(jsonRequest(t, http.MethodPost, "/templates/send", tt.req))

			require.Equal(t, http.StatusNotFound, w.Code)
			errResp := decodeError(t, w)
			assert.Equal(t, interfaces.KindNotFound, errResp.Kind)
			assert.Equal(t, "Template not found for the given state or ID", errResp.Detail)

			env.provider.AssertNotCalled(t, "SendWithTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandleSendWithTemplate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"malformed json", `{"signer_email":`, "invalid JSON body"},
		{"missing signer email", `{"template_id":"t","signer_name":"Jane"}`, "signer_email is required"},
		{"missing signer name", `{"template_id":"t","signer_email":"jane@example.com"}`, "signer_name is required"},
		{"bad email", `{"template_id":"t","signer_email":"jane","signer_name":"Jane"}`, "signer_email must be a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, HandlerConfig{})

			req := httptest.NewRequest(http.MethodPost, "/templates/send", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := env.do(req)

			require.Equal(t, http.StatusBadRequest, w.Code)
			errResp := decodeError(t, w)
			assert.Equal(t, interfaces.KindValidation, errResp.Kind)
			assert.Contains(t, errResp.Detail, tt.detail)
			env.provider.AssertNotCalled(t, "SendWithTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandleSendWithTemplate_ProviderError(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})
	env.provider.On("SendWithTemplate", mock.Anything, "tmpl_gone", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, interfaces.NewProviderError("Send with template", "Template not found", nil))

	w := env.do(jsonRequest(t, http.MethodPost, "/templates/send", api.SendRequest{
		TemplateID:  "tmpl_gone",
		SignerEmail: "jane@example.com",
		SignerName:  "Jane Doe",
	}))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	errResp := decodeError(t, w)
	assert.Equal(t, interfaces.KindProvider, errResp.Kind)
	assert.Contains(t, errResp.Detail, "Template not found")
}

func TestHandleGetSignatureRequest(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})
	signedAt := int64(1700000000)
	env.provider.On("GetSignatureRequest", mock.Anything, "abc123").Return(&interfaces.SignatureRequest{
		SignatureRequestID: "abc123",
		IsComplete:         true,
		Signatures:         []interfaces.Signature{{SignatureID: "s1", StatusCode: "signed", SignedAt: &signedAt}},
		Responses:          []interfaces.FieldResponse{},
	}, nil)
	env.provider.On("GetSignatureRequest", mock.Anything, "missing").
		Return(nil, interfaces.NewProviderError("Get signature request", "Not found", nil))

	w := env.do(httptest.NewRequest(http.MethodGet, "/signature-request/abc123", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var sr interfaces.SignatureRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sr))
	assert.True(t, sr.IsComplete)
	assert.Empty(t, sr.SigningURL)

	w = env.do(httptest.NewRequest(http.MethodGet, "/signature-request/missing", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, interfaces.KindProvider, decodeError(t, w).Kind)
}

func TestHandleListTemplates(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})

	w := env.do(httptest.NewRequest(http.MethodGet, "/templates", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	require.NoError(t, env.templates.Put("NY", "tmpl_ny"))
	require.NoError(t, env.templates.Put("CA", "tmpl_ca"))

	w = env.do(httptest.NewRequest(http.MethodGet, "/templates", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"NY":"tmpl_ny","CA":"tmpl_ca"}`, w.Body.String())
}

const signedPayload = `{
  "event": {"event_type": "signature_request_signed", "event_time": "1700000100", "event_hash": "%s"},
  "signature_request": {
    "signature_request_id": "abc123",
    "signatures": [{"signature_id": "s1", "signer_email_address": "jane@example.com", "signer_name": "Jane Doe", "signed_at": 1700000000}],
    "responses": [{"api_id": "full_name", "name": "full_name", "value": "Jane Doe"}]
  }
}`

func assertAck(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, webhook.Ack, w.Body.String())
}

func TestHandleWebhook_RecordsSignedOnce(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})
	payload := fmt.Sprintf(signedPayload, "")

	assertAck(t, env.do(webhookRequest(payload)))
	assertAck(t, env.do(webhookRequest(payload)))

	docs := env.signed.List()
	require.Len(t, docs, 1)
	assert.Equal(t, "abc123", docs[0].SignatureRequestID)
	assert.Equal(t, "jane@example.com", docs[0].SignerEmail)
	assert.Equal(t, "Jane Doe", docs[0].SignerName)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), docs[0].SignedAt)
	assert.Equal(t, fixedNow, docs[0].RecordedAt)

	w := env.do(httptest.NewRequest(http.MethodGet, "/signed-documents", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var listed []interfaces.SignedDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "abc123", listed[0].SignatureRequestID)
}

func TestHandleGetSignedDocument(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})

	w := env.do(httptest.NewRequest(http.MethodGet, "/signed-documents/abc123", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, interfaces.KindNotFound, decodeError(t, w).Kind)

	assertAck(t, env.do(webhookRequest(fmt.Sprintf(signedPayload, ""))))

	w = env.do(httptest.NewRequest(http.MethodGet, "/signed-documents/abc123", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var doc interfaces.SignedDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "abc123", doc.SignatureRequestID)
	assert.Equal(t, "jane@example.com", doc.SignerEmail)
	assert.Equal(t, fixedNow, doc.RecordedAt)
}

func TestHandleWebhook_MultipartForm(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField(webhook.FormField, fmt.Sprintf(signedPayload, "")))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/webhook", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	assertAck(t, env.do(req))
	assert.Len(t, env.signed.List(), 1)
}

func TestHandleWebhook_AlwaysAcks(t *testing.T) {
	tests := []struct {
		name string
		req  func() *http.Request
	}{
		{"malformed json", func() *http.Request { return webhookRequest("{not json") }},
		{"missing json field", func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("other=1"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return req
		}},
		{"no body", func() *http.Request { return httptest.NewRequest(http.MethodPost, "/webhook", nil) }},
		{"raw json body", func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(fmt.Sprintf(signedPayload, "")))
		}},
		{"signed event missing request id", func() *http.Request {
			return webhookRequest(`{"event":{"event_type":"signature_request_signed"},"signature_request":{"signatures":[{}]}}`)
		}},
		{"signed event without signatures", func() *http.Request {
			return webhookRequest(`{"event":{"event_type":"signature_request_signed"},"signature_request":{"signature_request_id":"x"}}`)
		}},
		{"other event type", func() *http.Request {
			return webhookRequest(`{"event":{"event_type":"signature_request_viewed"},"signature_request":{"signature_request_id":"x"}}`)
		}},
		{"callback test", func() *http.Request { return webhookRequest(`{"event":{"event_type":"callback_test"}}`) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, HandlerConfig{})
			assertAck(t, env.do(tt.req()))
			assert.Empty(t, env.signed.List())
		})
	}
}

func TestHandleWebhook_EventTypeLabelsAreBounded(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})

	other := metrics.WebhookEventsTotal.WithLabelValues("other", "ignored")
	before := testutil.ToFloat64(other)
	series := testutil.CollectAndCount(metrics.WebhookEventsTotal)

	for i := range 50 {
		assertAck(t, env.do(webhookRequest(fmt.Sprintf(`{"event":{"event_type":"junk_%d"}}`, i))))
	}

	assert.Equal(t, series, testutil.CollectAndCount(metrics.WebhookEventsTotal))
	assert.Equal(t, before+50, testutil.ToFloat64(other))
}

func TestHandleWebhook_AcksOnStorageFailure(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})

	// make the signed documents file unwritable by turning it into a directory
	require.NoError(t, os.Mkdir(filepath.Join(env.dir, "signed_documents.json"), 0o755))

	assertAck(t, env.do(webhookRequest(fmt.Sprintf(signedPayload, ""))))
	assert.Empty(t, env.signed.List())
}

func TestHandleWebhook_Verification(t *testing.T) {
	apiKey := "test-api-key-0123456789"
	env := newTestEnv(t, HandlerConfig{VerifyWebhooks: true, WebhookAPIKey: apiKey})

	assertAck(t, env.do(webhookRequest(fmt.Sprintf(signedPayload, "deadbeef"))))
	assert.Empty(t, env.signed.List())

	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte("1700000100" + webhook.EventSignatureRequestSigned))
	assertAck(t, env.do(webhookRequest(fmt.Sprintf(signedPayload, hex.EncodeToString(mac.Sum(nil))))))
	assert.Len(t, env.signed.List(), 1)
}

func TestHandleWebhook_RecoversFromPanics(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})
	env.server.handler.signed = panickingLog{}

	assertAck(t, env.do(webhookRequest(fmt.Sprintf(signedPayload, ""))))
}

type panickingLog struct{}

func (panickingLog) Append(interfaces.SignedDocument) (bool, error) { panic("boom") }
func (panickingLog) Get(string) (interfaces.SignedDocument, bool) {
	return interfaces.SignedDocument{}, false
}
func (panickingLog) List() []interfaces.SignedDocument { return nil }

func TestSanitizeStripsMarkup(t *testing.T) {
	h := newTestEnv(t, HandlerConfig{}).server.handler

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "NY Exemption", "NY Exemption"},
		{"special characters kept", "Tom & Jerry's <form>", "Tom & Jerry's"},
		{"tags", "<b>Sign</b> here", "Sign here"},
		{"script", "<script>alert(1)</script>Title", "Title"},
		{"entity encoded script", "&lt;script&gt;alert(1)&lt;/script&gt;", ""},
		{"entity encoded tags", "&lt;b&gt;hi&lt;/b&gt;", "hi"},
		{"double encoded tags", "&amp;lt;b&amp;gt;hi&amp;lt;/b&amp;gt;", "hi"},
		{"surrounding space", "  Please sign  ", "Please sign"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.sanitize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "<")
		})
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{})

	w := httptest.NewRecorder()
	env.server.handler.writeError(w, httptest.NewRequest(http.MethodGet, "/templates", nil), errors.New("secret path /var/lib/x"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var errResp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, interfaces.KindInternal, errResp.Kind)
	assert.Equal(t, "internal server error", errResp.Detail)
	assert.True(t, strings.HasPrefix(errResp.RequestID, "req_"))
}
