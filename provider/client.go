package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ruteri/esign-template-backend/credentials"
	"github.com/ruteri/esign-template-backend/interfaces"
	"github.com/ruteri/esign-template-backend/metrics"
)

const (
	// DefaultBaseURL is the Dropbox Sign v3 API root.
	DefaultBaseURL = "https://api.hellosign.com/v3"

	DefaultTimeout = 60 * time.Second

	// maxResponseSize bounds how much of a provider response is read.
	maxResponseSize = 8 << 20
)

// Config configures NewClient.
type Config struct {
	BaseURL     string
	Credentials credentials.Credentials

	// TestMode marks every request as a test request on the provider side.
	TestMode bool

	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements interfaces.Provider against the Dropbox Sign REST API.
type Client struct {
	baseURL    string
	creds      credentials.Credentials
	testMode   bool
	httpClient *http.Client
	log        *slog.Logger
}

var _ interfaces.Provider = (*Client)(nil)

// NewClient creates a provider client. The API key is sent as the basic
// auth user name on every request.
func NewClient(cfg Config, log *slog.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	log.Info("Provider client configured",
		slog.String("base_url", baseURL),
		slog.Bool("test_mode", cfg.TestMode),
		slog.Any("credentials", cfg.Credentials))

	return &Client{
		baseURL:    baseURL,
		creds:      cfg.Credentials,
		testMode:   cfg.TestMode,
		httpClient: httpClient,
		log:        log,
	}
}

// CreateTemplate registers doc as a reusable template with one signer role
// and the given fields placed on it.
func (c *Client) CreateTemplate(ctx context.Context, doc interfaces.Document, fields []interfaces.FieldDefinition, title, subject, message string) (templateID string, err error) {
	const op = "create_template"
	defer func(start time.Time) { metrics.ObserveProviderCall(op, start, err) }(time.Now())

	fieldsJSON, err := json.Marshal(formFields(fields))
	if err != nil {
		return "", interfaces.NewProviderError("Create template", "", fmt.Errorf("could not encode form fields: %w", err))
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("files[0]", doc.Name)
	if err != nil {
		return "", interfaces.NewProviderError("Create template", "", err)
	}
	if _, err := fw.Write(doc.Data); err != nil {
		return "", interfaces.NewProviderError("Create template", "", err)
	}

	params := [][2]string{
		{"title", title},
		{"subject", subject},
		{"message", message},
		{"signer_roles[0][name]", interfaces.DefaultSignerRole},
		{"signer_roles[0][order]", "0"},
		{"form_fields_per_document", string(fieldsJSON)},
		{"client_id", c.creds.ClientID},
		{"test_mode", strconv.FormatBool(c.testMode)},
	}
	for _, p := range params {
		if err := mw.WriteField(p[0], p[1]); err != nil {
			return "", interfaces.NewProviderError("Create template", "", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", interfaces.NewProviderError("Create template", "", err)
	}

	var resp templateCreateResponse
	if err := c.do(ctx, http.MethodPost, "/template/create", mw.FormDataContentType(), &body, &resp); err != nil {
		return "", wrapProviderError("Create template", err)
	}
	if resp.Template.TemplateID == "" {
		return "", interfaces.NewProviderError("Create template", "response carried no template id", nil)
	}

	c.log.Info("Created template",
		slog.String("template_id", resp.Template.TemplateID),
		slog.String("document", doc.Name),
		slog.Int("fields", len(fields)))

	return resp.Template.TemplateID, nil
}

// SendWithTemplate creates an embedded signature request for a single
// signer and fetches the embedded sign URL of the first signature.
// customFields is not sent to the provider.
func (c *Client) SendWithTemplate(ctx context.Context, templateID, signerEmail, signerName string, customFields map[string]any) (sr *interfaces.SignatureRequest, err error) {
	const op = "send_with_template"
	defer func(start time.Time) { metrics.ObserveProviderCall(op, start, err) }(time.Now())

	if len(customFields) > 0 {
		c.log.Debug("Custom fields are not forwarded to the provider",
			slog.String("template_id", templateID),
			slog.Int("custom_fields", len(customFields)))
	}

	payload, err := json.Marshal(embeddedWithTemplateRequest{
		TemplateIDs: []string{templateID},
		ClientID:    c.creds.ClientID,
		Signers: []templateSigner{{
			Role:         interfaces.DefaultSignerRole,
			Name:         signerName,
			EmailAddress: signerEmail,
		}},
		TestMode: c.testMode,
	})
	if err != nil {
		return nil, interfaces.NewProviderError("Send with template", "", err)
	}

	var resp signatureRequestResponse
	if err := c.do(ctx, http.MethodPost, "/signature_request/create_embedded_with_template", "application/json", bytes.NewReader(payload), &resp); err != nil {
		return nil, wrapProviderError("Send with template", err)
	}
	if resp.SignatureRequest == nil {
		return nil, interfaces.NewProviderError("Send with template", "response carried no signature request", nil)
	}

	sr = resp.SignatureRequest.Normalize()
	if len(sr.Signatures) == 0 {
		return nil, interfaces.NewProviderError("Send with template", "signature request has no signatures", nil)
	}

	signURL, err := c.embeddedSignURL(ctx, sr.Signatures[0].SignatureID)
	if err != nil {
		return nil, wrapProviderError("Get sign URL", err)
	}
	sr.SigningURL = signURL

	c.log.Info("Created signature request",
		slog.String("signature_request_id", sr.SignatureRequestID),
		slog.String("template_id", templateID))

	return sr, nil
}

// GetSignatureRequest fetches the current state of a signature request.
func (c *Client) GetSignatureRequest(ctx context.Context, requestID string) (sr *interfaces.SignatureRequest, err error) {
	const op = "get_signature_request"
	defer func(start time.Time) { metrics.ObserveProviderCall(op, start, err) }(time.Now())

	var resp signatureRequestResponse
	if err := c.do(ctx, http.MethodGet, "/signature_request/"+url.PathEscape(requestID), "", nil, &resp); err != nil {
		return nil, wrapProviderError("Get signature request", err)
	}
	if resp.SignatureRequest == nil {
		return nil, interfaces.NewProviderError("Get signature request", "response carried no signature request", nil)
	}

	return resp.SignatureRequest.Normalize(), nil
}

func (c *Client) embeddedSignURL(ctx context.Context, signatureID string) (string, error) {
	var resp embeddedSignURLResponse
	if err := c.do(ctx, http.MethodGet, "/embedded/sign_url/"+url.PathEscape(signatureID), "", nil, &resp); err != nil {
		return "", err
	}
	if resp.Embedded.SignURL == "" {
		return "", &apiError{Message: "response carried no sign url"}
	}
	return resp.Embedded.SignURL, nil
}

// apiError is a failure response decoded from the provider.
type apiError struct {
	StatusCode int
	Name       string
	Message    string
}

func (e *apiError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("provider returned %d (%s): %s", e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("provider returned %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	req.SetBasicAuth(c.creds.APIKey, "")
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Provider request failed", slog.String("path", path), "err", err)
		return fmt.Errorf("could not request provider: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("could not read provider response: %w", err)
	}

	c.log.Debug("Provider request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.ErrorMsg != "" {
			apiErr.Name = errResp.Error.ErrorName
			apiErr.Message = errResp.Error.ErrorMsg
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		c.log.Warn("Provider returned an error",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("error_name", apiErr.Name),
			slog.String("error_msg", apiErr.Message))
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("could not parse provider response: %w", err)
	}
	return nil
}

// wrapProviderError turns a transport or API failure into a provider error
// carrying the provider's own message when there is one.
func wrapProviderError(op string, err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return interfaces.NewProviderError(op, apiErr.Message, nil)
	}
	return interfaces.NewProviderError(op, "", err)
}
