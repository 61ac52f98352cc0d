// Package webhook decodes and verifies Dropbox Sign callback events.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/ruteri/esign-template-backend/interfaces"
	"github.com/ruteri/esign-template-backend/provider"
)

// Ack is the body the provider expects in reply to every callback.
const Ack = "Hello API Event Received"

// FormField is the form field carrying the JSON encoded event.
const FormField = "json"

const (
	EventSignatureRequestSigned = "signature_request_signed"
	EventCallbackTest           = "callback_test"
)

// knownEventTypes are the provider callback types reported as their own
// metric label. Everything else is counted as "other".
var knownEventTypes = map[string]struct{}{
	EventSignatureRequestSigned:      {},
	EventCallbackTest:                {},
	"signature_request_sent":         {},
	"signature_request_viewed":       {},
	"signature_request_all_signed":   {},
	"signature_request_declined":     {},
	"signature_request_canceled":     {},
	"signature_request_expired":      {},
	"signature_request_invalid":      {},
	"signature_request_downloadable": {},
	"signature_request_reassigned":   {},
	"signature_request_email_bounce": {},
	"signature_request_remind":       {},
	"template_created":               {},
	"template_error":                 {},
	"file_error":                     {},
	"unknown_error":                  {},
}

// EventTypeLabel maps an event type from an untrusted payload onto a closed
// set of metric label values.
func EventTypeLabel(eventType string) string {
	if eventType == "" {
		return "unknown"
	}
	if _, ok := knownEventTypes[eventType]; ok {
		return eventType
	}
	return "other"
}

// ErrHashMismatch is returned by Verify when event_hash does not match.
var ErrHashMismatch = errors.New("event hash mismatch")

// EventMetadata is the "event" object of a callback.
type EventMetadata struct {
	EventType string `json:"event_type"`
	EventTime string `json:"event_time"`
	EventHash string `json:"event_hash"`
}

// Event is a decoded provider callback.
type Event struct {
	Event            EventMetadata                 `json:"event"`
	SignatureRequest *provider.APISignatureRequest `json:"signature_request"`
}

// Decode parses the JSON payload of a callback.
func Decode(raw string) (*Event, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, interfaces.NewValidationError("missing %q form field", FormField)
	}

	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return nil, &interfaces.Error{Kind: interfaces.KindValidation, Message: "malformed event payload", Err: err}
	}
	if ev.Event.EventType == "" {
		return nil, interfaces.NewValidationError("event has no event_type")
	}
	return &ev, nil
}

// Type returns the event type.
func (e *Event) Type() string {
	return e.Event.EventType
}

// Verify checks event_hash, the hex HMAC-SHA256 of event_time followed by
// event_type keyed with the API key.
func (e *Event) Verify(apiKey string) error {
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte(e.Event.EventTime + e.Event.EventType))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(e.Event.EventHash))) {
		return ErrHashMismatch
	}
	return nil
}

// SignedDocument builds the local record of a completed signing from the
// first signature of the request. now is used as the record time and as the
// signing time when the signature carries none.
func (e *Event) SignedDocument(now time.Time) (interfaces.SignedDocument, error) {
	sr := e.SignatureRequest
	if sr == nil || sr.SignatureRequestID == "" {
		return interfaces.SignedDocument{}, interfaces.NewValidationError("event has no signature_request_id")
	}
	if len(sr.Signatures) == 0 {
		return interfaces.SignedDocument{}, interfaces.NewValidationError("signature request %s has no signatures", sr.SignatureRequestID)
	}

	normalized := sr.Normalize()
	first := normalized.Signatures[0]

	signedAt := now
	if first.SignedAt != nil && *first.SignedAt > 0 {
		signedAt = time.Unix(*first.SignedAt, 0)
	}

	return interfaces.SignedDocument{
		SignatureRequestID: normalized.SignatureRequestID,
		SignerEmail:        first.SignerEmailAddress,
		SignerName:         first.SignerName,
		Responses:          normalized.Responses,
		SignedAt:           signedAt.UTC(),
		RecordedAt:         now.UTC(),
	}, nil
}
