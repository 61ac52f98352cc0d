package interfaces

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var fieldValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateStruct checks the validate tags of a request struct and returns a
// validation error describing the first failures.
func ValidateStruct(v any) error {
	if err := fieldValidator.Struct(v); err != nil {
		return NewValidationError("%s", describeValidation(err))
	}
	return nil
}

// ParseFieldDefinitions decodes the fields_json form value. Both a bare JSON
// array and an object of the form {"fields": [...]} are accepted. The result
// is validated with ValidateFieldDefinitions.
func ParseFieldDefinitions(raw []byte) ([]FieldDefinition, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, NewValidationError("fields_json is required")
	}

	var fields []FieldDefinition
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, &Error{Kind: KindValidation, Message: "invalid fields_json", Err: err}
		}
	case '{':
		var wrapped struct {
			Fields *[]FieldDefinition `json:"fields"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, &Error{Kind: KindValidation, Message: "invalid fields_json", Err: err}
		}
		if wrapped.Fields == nil {
			return nil, NewValidationError("fields_json object has no \"fields\" key")
		}
		fields = *wrapped.Fields
	default:
		return nil, NewValidationError("fields_json must be a JSON array or an object with a \"fields\" array")
	}

	if err := ValidateFieldDefinitions(fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// ValidateFieldDefinitions checks the per-field invariants (name present,
// page >= 0, positive width and height) and that names are unique.
func ValidateFieldDefinitions(fields []FieldDefinition) error {
	seen := make(map[string]struct{}, len(fields))
	for i, field := range fields {
		if err := fieldValidator.Struct(field); err != nil {
			return NewValidationError("field %d (%q): %s", i, field.Name, describeValidation(err))
		}
		if _, dup := seen[field.Name]; dup {
			return NewValidationError("duplicate field name %q", field.Name)
		}
		seen[field.Name] = struct{}{}
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(parts, ", ")
}
