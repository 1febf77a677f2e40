// pkg/registry/schema.go
package registry

// ReplyRegistry is the on-disk catalogue of chat reply templates.
type ReplyRegistry struct {
	Version     string          `json:"version"`
	LastUpdated string          `json:"lastUpdated"`
	Templates   []ReplyTemplate `json:"templates"`
}

// ReplyTemplate is one canned reply. Text may embed [get:dotted.path]
// markers resolved against the composed knowledge tree at send time.
type ReplyTemplate struct {
	ID      string   `json:"id"`
	Intent  string   `json:"intent"`
	Topic   string   `json:"topic,omitempty"` // empty matches any topic for the intent
	Text    string   `json:"text"`
	Version string   `json:"version"`
	Tags    []string `json:"tags,omitempty"`
}
