// internal/knowledge/overlay/jsonfile.go
package overlay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"expo-chat-workers/internal/knowledge/tree"
)

// JSONFileLoader reads one JSON overlay file per build. The file is read
// fresh on every call; only the database layer is cached.
type JSONFileLoader struct {
	path string
}

func NewJSONFileLoader(path string) *JSONFileLoader {
	return &JSONFileLoader{path: path}
}

func (l *JSONFileLoader) Source() string { return SourceJSONFile }

func (l *JSONFileLoader) Load(_ context.Context) (tree.Tree, error) {
	if l.path == "" {
		return nil, ErrNotAvailable
	}

	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrNotAvailable, l.path, err)
	}

	var parsed interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrNotAvailable, l.path, err)
	}

	// A top-level array or scalar is not an overlay.
	overlayTree, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s top-level value is not an object", ErrNotAvailable, l.path)
	}
	return overlayTree, nil
}
