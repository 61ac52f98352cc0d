package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ruteri/esign-template-backend/api"
	"github.com/ruteri/esign-template-backend/interfaces"
)

// ESignClient calls the e-signature template API over HTTP.
type ESignClient struct {
	serverAddr string
	httpClient *http.Client
}

var _ api.ESignAPI = (*ESignClient)(nil)

// NewESignClient creates a client for the server at serverAddr,
// e.g. http://localhost:8000.
func NewESignClient(serverAddr string, timeout time.Duration) *ESignClient {
	return &ESignClient{
		serverAddr: strings.TrimSuffix(serverAddr, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateTemplate uploads a document with its field placements.
func (c *ESignClient) CreateTemplate(ctx context.Context, req *api.CreateTemplateRequest) (*api.CreateTemplateResponse, error) {
	fieldsJSON, err := json.Marshal(req.Fields)
	if err != nil {
		return nil, fmt.Errorf("could not encode fields: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, kv := range [][2]string{
		{api.FormTitle, req.Title},
		{api.FormSubject, req.Subject},
		{api.FormMessage, req.Message},
		{api.FormStateCode, req.StateCode},
		{api.FormFieldsJSON, string(fieldsJSON)},
	} {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	fw, err := mw.CreateFormFile(api.FormFile, req.FileName)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(req.File); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var resp api.CreateTemplateResponse
	if err := c.do(ctx, http.MethodPost, "/templates/create", mw.FormDataContentType(), &body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendWithTemplate starts an embedded signing and returns the request with
// its signing URL.
func (c *ESignClient) SendWithTemplate(ctx context.Context, req *api.SendRequest) (*interfaces.SignatureRequest, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("could not encode request: %w", err)
	}

	var resp interfaces.SignatureRequest
	if err := c.do(ctx, http.MethodPost, "/templates/send", "application/json", bytes.NewReader(payload), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSignatureRequest returns the provider state of a signature request.
func (c *ESignClient) GetSignatureRequest(ctx context.Context, requestID string) (*interfaces.SignatureRequest, error) {
	var resp interfaces.SignatureRequest
	if err := c.do(ctx, http.MethodGet, "/signature-request/"+url.PathEscape(requestID), "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTemplates returns the state code to template id mapping.
func (c *ESignClient) ListTemplates(ctx context.Context) (map[string]string, error) {
	resp := map[string]string{}
	if err := c.do(ctx, http.MethodGet, "/templates", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListSignedDocuments returns every recorded signing, oldest first.
func (c *ESignClient) ListSignedDocuments(ctx context.Context) ([]interfaces.SignedDocument, error) {
	var resp []interfaces.SignedDocument
	if err := c.do(ctx, http.MethodGet, "/signed-documents", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetSignedDocument returns the recorded signing for a signature request.
func (c *ESignClient) GetSignedDocument(ctx context.Context, requestID string) (*interfaces.SignedDocument, error) {
	var resp interfaces.SignedDocument
	if err := c.do(ctx, http.MethodGet, "/signed-documents/"+url.PathEscape(requestID), "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do performs the request and decodes a 2xx body into out. Error bodies are
// turned back into *interfaces.Error so callers can switch on the kind.
func (c *ESignClient) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.serverAddr+path, body)
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Kind != "" {
			return &interfaces.Error{Kind: errResp.Kind, Message: errResp.Detail}
		}
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}
	return nil
}
