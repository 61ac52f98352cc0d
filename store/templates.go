package store

import (
	"log/slog"
	"maps"
	"sync"

	"github.com/ruteri/esign-template-backend/interfaces"
)

// TemplateStore is a file-backed mapping from jurisdiction code to provider
// template id. The whole mapping is rewritten on every Put.
type TemplateStore struct {
	mu        sync.RWMutex
	path      string
	templates map[string]string
	log       *slog.Logger
}

// NewTemplateStore loads the mapping from path. A missing file yields an
// empty store; an unreadable or corrupt file is a persistence error.
func NewTemplateStore(path string, log *slog.Logger) (*TemplateStore, error) {
	templates := make(map[string]string)
	found, err := readJSONFile(path, &templates)
	if err != nil {
		return nil, interfaces.NewPersistenceError("load template store", err)
	}
	if templates == nil {
		// the file held a JSON null
		templates = make(map[string]string)
	}

	log.Info("Loaded template store",
		slog.String("path", path),
		slog.Bool("existing", found),
		slog.Int("templates", len(templates)))

	return &TemplateStore{
		path:      path,
		templates: templates,
		log:       log,
	}, nil
}

// Get returns the template id stored for code.
func (s *TemplateStore) Get(code string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.templates[code]
	return id, ok
}

// Put overwrites the mapping for code and persists the whole mapping. If the
// write fails the in-memory mapping is rolled back.
func (s *TemplateStore) Put(code, templateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.templates[code]
	s.templates[code] = templateID

	if err := writeJSONFile(s.path, s.templates); err != nil {
		if existed {
			s.templates[code] = previous
		} else {
			delete(s.templates, code)
		}
		return interfaces.NewPersistenceError("save template store", err)
	}

	s.log.Debug("Stored template mapping",
		slog.String("state_code", code),
		slog.String("template_id", templateID),
		slog.Bool("replaced", existed))
	return nil
}

// List returns a copy of the full mapping.
func (s *TemplateStore) List() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.templates)
}
