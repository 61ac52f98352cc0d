package provider

import "github.com/ruteri/esign-template-backend/interfaces"

// formField is one entry of form_fields_per_document.
type formField struct {
	APIID         string `json:"api_id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Required      bool   `json:"required"`
	Signer        string `json:"signer"`
	Page          int    `json:"page"`
	DocumentIndex int    `json:"document_index"`
	IsChecked     *bool  `json:"is_checked,omitempty"`
}

type templateSigner struct {
	Role         string `json:"role"`
	Name         string `json:"name"`
	EmailAddress string `json:"email_address"`
}

type embeddedWithTemplateRequest struct {
	TemplateIDs []string         `json:"template_ids"`
	ClientID    string           `json:"client_id"`
	Signers     []templateSigner `json:"signers"`
	TestMode    bool             `json:"test_mode"`
}

type templateCreateResponse struct {
	Template struct {
		TemplateID string `json:"template_id"`
	} `json:"template"`
}

type signatureRequestResponse struct {
	SignatureRequest *APISignatureRequest `json:"signature_request"`
}

type embeddedSignURLResponse struct {
	Embedded struct {
		SignURL   string `json:"sign_url"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"embedded"`
}

type errorResponse struct {
	Error struct {
		ErrorMsg  string `json:"error_msg"`
		ErrorName string `json:"error_name"`
	} `json:"error"`
}

// APISignatureRequest is a signature request as the provider encodes it in
// API responses and callback events.
type APISignatureRequest struct {
	SignatureRequestID string                     `json:"signature_request_id"`
	TemplateIDs        []string                   `json:"template_ids"`
	Title              string                     `json:"title"`
	IsComplete         bool                       `json:"is_complete"`
	IsDeclined         bool                       `json:"is_declined"`
	HasError           bool                       `json:"has_error"`
	Signatures         []interfaces.Signature     `json:"signatures"`
	ResponseData       []interfaces.FieldResponse `json:"response_data"`

	// Responses is accepted as an alias of ResponseData.
	Responses []interfaces.FieldResponse `json:"responses"`
}

// Normalize converts the provider encoding into the local model.
func (r *APISignatureRequest) Normalize() *interfaces.SignatureRequest {
	responses := r.Responses
	if len(responses) == 0 {
		responses = r.ResponseData
	}
	if responses == nil {
		responses = []interfaces.FieldResponse{}
	}
	signatures := r.Signatures
	if signatures == nil {
		signatures = []interfaces.Signature{}
	}

	return &interfaces.SignatureRequest{
		SignatureRequestID: r.SignatureRequestID,
		TemplateIDs:        r.TemplateIDs,
		Title:              r.Title,
		IsComplete:         r.IsComplete,
		IsDeclined:         r.IsDeclined,
		HasError:           r.HasError,
		Signatures:         signatures,
		Responses:          responses,
	}
}
