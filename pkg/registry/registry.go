// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadRegistry(path string) (*ReplyRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ReplyRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// ByID returns the template with the given id.
func (r *ReplyRegistry) ByID(id string) (*ReplyTemplate, bool) {
	for i := range r.Templates {
		if r.Templates[i].ID == id {
			return &r.Templates[i], true
		}
	}
	return nil, false
}

// Select picks the template for an (intent, topic) pair. An exact
// intent+topic match wins; a template with an empty topic acts as the
// intent's catch-all.
func (r *ReplyRegistry) Select(intent, topic string) (*ReplyTemplate, bool) {
	var catchAll *ReplyTemplate
	for i := range r.Templates {
		t := &r.Templates[i]
		if t.Intent != intent {
			continue
		}
		if t.Topic == topic {
			return t, true
		}
		if t.Topic == "" && catchAll == nil {
			catchAll = t
		}
	}
	if catchAll != nil {
		return catchAll, true
	}
	return nil, false
}

// Validate checks structural invariants: unique non-empty ids and
// non-empty intent and text on every template.
func (r *ReplyRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Templates))
	for _, t := range r.Templates {
		if t.ID == "" {
			return fmt.Errorf("template with empty id")
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate template id %q", t.ID)
		}
		seen[t.ID] = true
		if t.Intent == "" {
			return fmt.Errorf("template %q has empty intent", t.ID)
		}
		if t.Text == "" {
			return fmt.Errorf("template %q has empty text", t.ID)
		}
	}
	return nil
}
