package interfaces

import (
	"encoding/json"
	"time"
)

// FieldType selects the provider form-field kind a FieldDefinition maps to.
type FieldType string

const (
	FieldText       FieldType = "text"
	FieldSignature  FieldType = "signature"
	FieldInitials   FieldType = "initials"
	FieldCheckbox   FieldType = "checkbox"
	FieldDateSigned FieldType = "date_signed"
)

// DefaultSignerRole is the single signer role every template is created with.
const DefaultSignerRole = "Signer"

// Known reports whether t is one of the five supported field kinds.
func (t FieldType) Known() bool {
	switch t {
	case FieldText, FieldSignature, FieldInitials, FieldCheckbox, FieldDateSigned:
		return true
	default:
		return false
	}
}

// FieldDefinition is a positioned form field placed on an uploaded document.
type FieldDefinition struct {
	// Name is unique within a document and doubles as the provider api_id.
	Name string `json:"name" validate:"required"`

	// Type is one of the FieldType constants. Anything else is sent as text.
	Type FieldType `json:"type"`

	Page   int `json:"page" validate:"gte=0"`
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width" validate:"gt=0"`
	Height int `json:"height" validate:"gt=0"`

	// Required defaults to true when omitted from the payload.
	Required bool `json:"required"`

	// SignerRole defaults to DefaultSignerRole when omitted.
	SignerRole string `json:"signer_role"`

	// ValidationType is accepted for compatibility with the designer UI and ignored.
	ValidationType string `json:"validation_type,omitempty"`
}

// UnmarshalJSON applies the Required and SignerRole defaults.
func (f *FieldDefinition) UnmarshalJSON(data []byte) error {
	type plain FieldDefinition
	decoded := plain{
		Required:   true,
		SignerRole: DefaultSignerRole,
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.SignerRole == "" {
		decoded.SignerRole = DefaultSignerRole
	}
	*f = FieldDefinition(decoded)
	return nil
}

// Document is an uploaded file as handed to the provider.
type Document struct {
	Name string
	Data []byte
}

// Signature is one signer slot of a provider signature request.
type Signature struct {
	SignatureID        string `json:"signature_id"`
	SignerEmailAddress string `json:"signer_email_address"`
	SignerName         string `json:"signer_name"`
	SignerRole         string `json:"signer_role,omitempty"`
	StatusCode         string `json:"status_code,omitempty"`

	// SignedAt is a unix timestamp, nil until the signer completes.
	SignedAt *int64 `json:"signed_at,omitempty"`
}

// FieldResponse is a value a signer entered into a template field.
type FieldResponse struct {
	APIID string `json:"api_id"`
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`

	// Value is a string for text-like fields and a bool for checkboxes.
	Value any `json:"value"`
}

// SignatureRequest is the normalized view of a provider signature request.
// It is never persisted locally.
type SignatureRequest struct {
	SignatureRequestID string   `json:"signature_request_id"`
	TemplateIDs        []string `json:"template_ids,omitempty"`
	Title              string   `json:"title,omitempty"`
	IsComplete         bool     `json:"is_complete"`
	IsDeclined         bool     `json:"is_declined"`
	HasError           bool     `json:"has_error"`

	// SigningURL is the embedded sign URL for the first signature. It is only
	// populated on requests returned by SendWithTemplate.
	SigningURL string `json:"signing_url,omitempty"`

	Signatures []Signature     `json:"signatures"`
	Responses  []FieldResponse `json:"responses"`
}

// SignedDocument is the local record of a completed signing, keyed by
// SignatureRequestID. Records are immutable once appended.
type SignedDocument struct {
	SignatureRequestID string          `json:"signature_request_id"`
	SignerEmail        string          `json:"signer_email"`
	SignerName         string          `json:"signer_name"`
	Responses          []FieldResponse `json:"responses"`
	SignedAt           time.Time       `json:"signed_at"`
	RecordedAt         time.Time       `json:"recorded_at"`
}
