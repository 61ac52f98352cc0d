package provider

import "github.com/ruteri/esign-template-backend/interfaces"

// formFieldType maps a field kind to the provider's form field type.
// Unknown kinds are sent as text.
func formFieldType(t interfaces.FieldType) string {
	switch t {
	case interfaces.FieldSignature:
		return "signature"
	case interfaces.FieldInitials:
		return "initials"
	case interfaces.FieldCheckbox:
		return "checkbox"
	case interfaces.FieldDateSigned:
		return "date_signed"
	default:
		return "text"
	}
}

// formFields builds form_fields_per_document for a single uploaded document.
func formFields(fields []interfaces.FieldDefinition) []formField {
	out := make([]formField, 0, len(fields))
	for _, f := range fields {
		signer := f.SignerRole
		if signer == "" {
			signer = interfaces.DefaultSignerRole
		}

		ff := formField{
			APIID:         f.Name,
			Name:          f.Name,
			Type:          formFieldType(f.Type),
			X:             f.X,
			Y:             f.Y,
			Width:         f.Width,
			Height:        f.Height,
			Required:      f.Required,
			Signer:        signer,
			Page:          f.Page,
			DocumentIndex: 0,
		}
		if ff.Type == "checkbox" {
			unchecked := false
			ff.IsChecked = &unchecked
		}
		out = append(out, ff)
	}
	return out
}
