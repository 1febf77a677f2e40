// internal/workers/chat/track-engagement/models.go
package trackengagement

type Input struct {
	SessionID  string `json:"sessionId"`
	Intent     string `json:"intent"`
	Topic      string `json:"topic,omitempty"`
	TemplateID string `json:"templateId,omitempty"`
	Fallback   bool   `json:"fallbackUsed,omitempty"`
}

type Output struct {
	EventID     string `json:"eventId"`
	IntentCount int64  `json:"intentCount"` // today's running total for the intent, 0 when unavailable
	IndexedAt   string `json:"indexedAt"`   // ISO 8601
}

// engagementEvent is the document shape written to Elasticsearch.
type engagementEvent struct {
	EventID    string `json:"eventId"`
	SessionID  string `json:"sessionId"`
	Intent     string `json:"intent"`
	Topic      string `json:"topic,omitempty"`
	TemplateID string `json:"templateId,omitempty"`
	Fallback   bool   `json:"fallbackUsed"`
	OccurredAt string `json:"occurredAt"`
}
