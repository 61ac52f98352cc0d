package interfaces

// TemplateStore maps jurisdiction (state) codes to provider template identifiers.
type TemplateStore interface {
	// Get returns the template id stored for code.
	Get(code string) (string, bool)

	// Put overwrites the mapping for code and persists the whole mapping.
	Put(code, templateID string) error

	// List returns a copy of the full mapping.
	List() map[string]string
}

// SignedDocumentLog is an append-only log of completed signings.
type SignedDocumentLog interface {
	// Append records doc unless a record with the same SignatureRequestID
	// exists, in which case it returns inserted=false and no error.
	Append(doc SignedDocument) (inserted bool, err error)

	// Get returns the record for a signature request id.
	Get(requestID string) (SignedDocument, bool)

	// List returns all records, oldest first.
	List() []SignedDocument
}
