// internal/workers/chat/detect-intent/models.go
package detectintent

type Input struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

type Output struct {
	Intent         string `json:"intent"`
	Topic          string `json:"topic"`
	MatchedKeyword string `json:"matchedKeyword,omitempty"`
	DetectedAt     string `json:"detectedAt"` // ISO 8601
}
