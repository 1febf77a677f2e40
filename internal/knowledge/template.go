// internal/knowledge/template.go
package knowledge

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"expo-chat-workers/internal/knowledge/tree"
)

// Reply templates embed knowledge lookups as [get:dotted.path] markers.
// The bracket/colon syntax and the not-found message below are wire
// contracts shared with the template authors; don't change them.
var placeholderPattern = regexp.MustCompile(`\[get:([^\]]+)\]`)

const placeholderPrefixLen = len("[get:")

// ResolveTemplate substitutes every [get:<path>] marker in text with the
// value at that path in the composed knowledge tree. Primitives are
// substituted as their string form, containers as JSON, and unresolvable
// paths as a readable inline placeholder. Single pass: a substituted value
// containing [get:...] text is not expanded again.
func ResolveTemplate(text string, knowledge tree.Tree) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[placeholderPrefixLen : len(match)-1])
		value, found := tree.Resolve(path, knowledge)
		if !found {
			return "[Data for " + path + " not found]"
		}
		return formatValue(value)
	})
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		// Sub-trees, arrays and null stay machine-parseable.
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
