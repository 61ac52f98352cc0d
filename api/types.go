package api

import (
	"context"

	"github.com/ruteri/esign-template-backend/interfaces"
)

// Multipart form fields of POST /templates/create.
const (
	FormTitle      = "title"
	FormSubject    = "subject"
	FormMessage    = "message"
	FormStateCode  = "state_code"
	FormFieldsJSON = "fields_json"
	FormFile       = "file"
)

// RequestIDHeader carries the identifier also returned in error bodies.
const RequestIDHeader = "X-Request-Id"

// CreateTemplateRequest is the input of POST /templates/create. It travels
// as multipart form data.
type CreateTemplateRequest struct {
	Title     string
	Subject   string
	Message   string
	StateCode string

	// Fields is sent as the fields_json form value.
	Fields []interfaces.FieldDefinition

	FileName string
	File     []byte
}

// CreateTemplateResponse is returned by POST /templates/create.
type CreateTemplateResponse struct {
	TemplateID string `json:"template_id"`
	StateCode  string `json:"state_code"`
	File       string `json:"file"`
}

// SendRequest is the JSON body of POST /templates/send. TemplateID wins over
// StateCode when both are set.
type SendRequest struct {
	TemplateID   string         `json:"template_id,omitempty"`
	StateCode    string         `json:"state_code,omitempty"`
	SignerEmail  string         `json:"signer_email" validate:"required,email"`
	SignerName   string         `json:"signer_name" validate:"required"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail    string               `json:"detail"`
	Kind      interfaces.ErrorKind `json:"kind"`
	RequestID string               `json:"request_id"`
}

// ESignAPI is the HTTP API as seen by Go callers.
type ESignAPI interface {
	CreateTemplate(ctx context.Context, req *CreateTemplateRequest) (*CreateTemplateResponse, error)
	SendWithTemplate(ctx context.Context, req *SendRequest) (*interfaces.SignatureRequest, error)
	GetSignatureRequest(ctx context.Context, requestID string) (*interfaces.SignatureRequest, error)
	ListTemplates(ctx context.Context) (map[string]string, error)
	ListSignedDocuments(ctx context.Context) ([]interfaces.SignedDocument, error)
	GetSignedDocument(ctx context.Context, requestID string) (*interfaces.SignedDocument, error)
}
