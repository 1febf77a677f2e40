// internal/knowledge/tree/tree.go
package tree

import "strings"

// Tree is the dynamic knowledge document shape shared across overlay
// sources, the builder and the resolvers. Values are the JSON union:
// string, float64, bool, nil, []interface{} or a nested Tree.
type Tree = map[string]interface{}

// Merge combines base and overlay into a new tree. Sub-maps merge
// key-wise; every other overlay value (scalars, arrays, nil) replaces the
// base value wholesale. Neither input is mutated.
func Merge(base, overlay Tree) Tree {
	result := make(Tree, len(base)+len(overlay))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range overlay {
		bm, baseIsMap := result[k].(map[string]interface{})
		om, overlayIsMap := v.(map[string]interface{})
		if baseIsMap && overlayIsMap {
			result[k] = Merge(bm, om)
			continue
		}
		result[k] = v
	}
	return result
}

// Clone returns a deep copy of t. Slices and sub-maps are copied so the
// result can be handed to callers that are allowed to mutate it.
func Clone(t Tree) Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return Clone(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

// SplitPath splits a dotted path into segments, dropping empty ones.
// A path with zero usable segments yields nil.
func SplitPath(path string) []string {
	parts := strings.Split(path, ".")
	segments := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// Resolve walks t along the dotted path. The second return is false when
// the path is empty, an intermediate segment is missing, or an
// intermediate value is not a sub-map.
func Resolve(path string, t Tree) (interface{}, bool) {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return nil, false
	}

	current := interface{}(t)
	for _, segment := range segments {
		currentMap, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		val, exists := currentMap[segment]
		if !exists {
			return nil, false
		}
		current = val
	}
	return current, true
}

// SetPath stores value into t at the dotted path, creating intermediate
// sub-maps as needed. An existing non-map value along the way is replaced
// with a fresh sub-map (last write wins). Paths with no usable segments
// are ignored.
func SetPath(t Tree, path string, value interface{}) {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return
	}

	current := t
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]interface{})
		if !ok {
			next = make(Tree)
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}
