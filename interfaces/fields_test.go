package interfaces

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldDefinitions_Shapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "bare array",
			raw:  `[{"name":"sig","type":"signature","page":0,"x":100,"y":200,"width":50,"height":20}]`,
		},
		{
			name: "wrapped object",
			raw:  `{"fields":[{"name":"sig","type":"signature","page":0,"x":100,"y":200,"width":50,"height":20}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := ParseFieldDefinitions([]byte(tt.raw))
			require.NoError(t, err)
			require.Len(t, fields, 1)

			f := fields[0]
			assert.Equal(t, "sig", f.Name)
			assert.Equal(t, FieldSignature, f.Type)
			assert.Equal(t, 100, f.X)
			assert.Equal(t, 200, f.Y)
			assert.Equal(t, 50, f.Width)
			assert.Equal(t, 20, f.Height)
			assert.True(t, f.Required, "required defaults to true")
			assert.Equal(t, DefaultSignerRole, f.SignerRole)
		})
	}
}

func TestParseFieldDefinitions_ExplicitValues(t *testing.T) {
	raw := `[{"name":"agree","type":"checkbox","page":2,"x":1,"y":2,"width":20,"height":20,"required":false,"signer_role":"Client","validation_type":"none"}]`

	fields, err := ParseFieldDefinitions([]byte(raw))
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.False(t, fields[0].Required)
	assert.Equal(t, "Client", fields[0].SignerRole)
}

func TestParseFieldDefinitions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: "  "},
		{name: "malformed", raw: `[{"name":`},
		{name: "scalar", raw: `"fields"`},
		{name: "object without fields", raw: `{"items":[]}`},
		{name: "missing name", raw: `[{"type":"text","page":0,"width":10,"height":10}]`},
		{name: "negative page", raw: `[{"name":"a","page":-1,"width":10,"height":10}]`},
		{name: "zero width", raw: `[{"name":"a","page":0,"width":0,"height":10}]`},
		{name: "zero height", raw: `[{"name":"a","page":0,"width":10,"height":0}]`},
		{name: "duplicate names", raw: `[{"name":"a","page":0,"width":10,"height":10},{"name":"a","page":1,"width":10,"height":10}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFieldDefinitions([]byte(tt.raw))
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
}

func TestFieldType_Known(t *testing.T) {
	for _, ft := range []FieldType{FieldText, FieldSignature, FieldInitials, FieldCheckbox, FieldDateSigned} {
		assert.True(t, ft.Known(), string(ft))
	}
	assert.False(t, FieldType("email").Known())
	assert.False(t, FieldType("").Known())
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("disk full")

	perr := NewPersistenceError("write templates file", cause)
	assert.Equal(t, KindPersistence, KindOf(perr))
	assert.ErrorIs(t, perr, cause)
	assert.Equal(t, "internal storage error", perr.PublicMessage())
	assert.Contains(t, perr.Error(), "disk full")

	provErr := NewProviderError("template create", "Invalid file", cause)
	assert.Equal(t, "template create failed: Invalid file: disk full", provErr.PublicMessage())

	assert.Equal(t, http.StatusBadRequest, KindValidation.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, KindNotFound.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindProvider.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindPersistence.HTTPStatus())
	assert.Equal(t, KindInternal, KindOf(cause))
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	type signer struct {
		Email string `json:"signer_email" validate:"required,email"`
		Name  string `json:"signer_name" validate:"required"`
	}

	err := ValidateStruct(signer{Email: "not-an-email"})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "signer_email must be a valid email address")
	assert.Contains(t, err.Error(), "signer_name is required")

	assert.NoError(t, ValidateStruct(signer{Email: "jane@example.com", Name: "Jane"}))
}
