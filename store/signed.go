package store

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/ruteri/esign-template-backend/interfaces"
)

// SignedDocumentLog is a file-backed, append-only list of signed document
// records, deduplicated by signature request id.
type SignedDocumentLog struct {
	mu      sync.RWMutex
	path    string
	records []interfaces.SignedDocument
	index   map[string]int
	log     *slog.Logger
}

// NewSignedDocumentLog loads the records from path. A missing file yields an
// empty log.
func NewSignedDocumentLog(path string, log *slog.Logger) (*SignedDocumentLog, error) {
	var records []interfaces.SignedDocument
	found, err := readJSONFile(path, &records)
	if err != nil {
		return nil, interfaces.NewPersistenceError("load signed document log", err)
	}

	index := make(map[string]int, len(records))
	for i, rec := range records {
		if _, dup := index[rec.SignatureRequestID]; dup {
			log.Warn("Duplicate signed document record in log file",
				slog.String("signature_request_id", rec.SignatureRequestID))
			continue
		}
		index[rec.SignatureRequestID] = i
	}

	log.Info("Loaded signed document log",
		slog.String("path", path),
		slog.Bool("existing", found),
		slog.Int("records", len(records)))

	return &SignedDocumentLog{
		path:    path,
		records: records,
		index:   index,
		log:     log,
	}, nil
}

// Append records doc. A record whose SignatureRequestID is already present is
// ignored and reported as inserted=false, so provider redeliveries are harmless.
func (l *SignedDocumentLog) Append(doc interfaces.SignedDocument) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.index[doc.SignatureRequestID]; exists {
		l.log.Debug("Ignoring duplicate signed document",
			slog.String("signature_request_id", doc.SignatureRequestID))
		return false, nil
	}

	updated := append(slices.Clip(l.records), doc)
	if err := writeJSONFile(l.path, updated); err != nil {
		return false, interfaces.NewPersistenceError("save signed document log", err)
	}

	l.records = updated
	l.index[doc.SignatureRequestID] = len(updated) - 1
	return true, nil
}

// Get returns the record for a signature request id.
func (l *SignedDocumentLog) Get(requestID string) (interfaces.SignedDocument, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[requestID]
	if !ok {
		return interfaces.SignedDocument{}, false
	}
	return l.records[i], true
}

// List returns all records, oldest first.
func (l *SignedDocumentLog) List() []interfaces.SignedDocument {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]interfaces.SignedDocument, len(l.records))
	copy(out, l.records)
	return out
}
