// Package provider talks to the Dropbox Sign (formerly HelloSign) v3 API.
//
// Client creates templates from an uploaded document and a list of positioned
// fields, sends embedded signature requests against a template and looks up
// signature requests. Every template has a single signer role, "Signer".
//
// Field kinds map one to one onto provider form field types. Any kind outside
// text, signature, initials, checkbox and date_signed is sent as text.
//
// Custom field values passed to SendWithTemplate are accepted and dropped;
// they are not pre-filled on the provider side.
package provider
