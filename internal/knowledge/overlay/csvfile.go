// internal/knowledge/overlay/csvfile.go
package overlay

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"expo-chat-workers/internal/knowledge/tree"
)

// CSVFileLoader reads a two-column path,value overlay file. Each row sets
// one dotted path; values are coerced to booleans, null, numbers or JSON
// before falling back to the raw string. Malformed rows (no delimiter,
// empty path) are skipped without failing the layer.
type CSVFileLoader struct {
	path string
}

func NewCSVFileLoader(path string) *CSVFileLoader {
	return &CSVFileLoader{path: path}
}

func (l *CSVFileLoader) Source() string { return SourceCSVFile }

func (l *CSVFileLoader) Load(_ context.Context) (tree.Tree, error) {
	if l.path == "" {
		return nil, ErrNotAvailable
	}

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrNotAvailable, l.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrNotAvailable, l.path, err)
	}

	overlayTree := make(tree.Tree)
	for i, record := range records {
		if i == 0 && isHeaderRow(record) {
			continue
		}
		if len(record) < 2 {
			continue // no delimiter, defensive skip
		}
		path := strings.TrimSpace(record[0])
		if path == "" {
			continue
		}
		// Extra columns are ignored; only path,value carry meaning.
		tree.SetPath(overlayTree, path, coerceValue(record[1]))
	}
	return overlayTree, nil
}

func isHeaderRow(record []string) bool {
	return len(record) >= 2 &&
		strings.EqualFold(strings.TrimSpace(record[0]), "path") &&
		strings.EqualFold(strings.TrimSpace(record[1]), "value")
}

var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// coerceValue types a raw CSV cell: true/false, null/empty, a number
// (optionally with _ digit-group separators), embedded JSON, or the
// string itself when nothing else applies.
func coerceValue(raw string) interface{} {
	value := strings.TrimSpace(raw)

	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	case "null", "":
		return nil
	}

	numeric := strings.ReplaceAll(value, "_", "")
	if numericPattern.MatchString(numeric) {
		if f, err := strconv.ParseFloat(numeric, 64); err == nil {
			return f
		}
	}

	// Allow embedded arrays/objects (and JSON-quoted strings).
	var parsed interface{}
	if err := json.Unmarshal([]byte(value), &parsed); err == nil {
		return parsed
	}

	return value
}
