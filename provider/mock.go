package provider

import (
	"context"

	"github.com/ruteri/esign-template-backend/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockProvider is a testify mock of interfaces.Provider.
type MockProvider struct {
	mock.Mock
}

var _ interfaces.Provider = (*MockProvider)(nil)

func (m *MockProvider) CreateTemplate(ctx context.Context, doc interfaces.Document, fields []interfaces.FieldDefinition, title, subject, message string) (string, error) {
	args := m.Called(ctx, doc, fields, title, subject, message)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) SendWithTemplate(ctx context.Context, templateID, signerEmail, signerName string, customFields map[string]any) (*interfaces.SignatureRequest, error) {
	args := m.Called(ctx, templateID, signerEmail, signerName, customFields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.SignatureRequest), args.Error(1)
}

func (m *MockProvider) GetSignatureRequest(ctx context.Context, requestID string) (*interfaces.SignatureRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.SignatureRequest), args.Error(1)
}
