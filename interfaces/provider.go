package interfaces

import "context"

// Provider is the e-signature provider as seen by the HTTP layer.
type Provider interface {
	// CreateTemplate uploads doc with the positioned fields and returns the
	// provider template identifier.
	CreateTemplate(ctx context.Context, doc Document, fields []FieldDefinition, title, subject, message string) (string, error)

	// SendWithTemplate creates an embedded signature request for one signer
	// and returns it with SigningURL set. customFields is accepted but not
	// sent to the provider.
	SendWithTemplate(ctx context.Context, templateID, signerEmail, signerName string, customFields map[string]any) (*SignatureRequest, error)

	// GetSignatureRequest fetches the current state of a signature request.
	GetSignatureRequest(ctx context.Context, requestID string) (*SignatureRequest, error)
}
