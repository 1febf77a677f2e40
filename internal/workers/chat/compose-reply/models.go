// internal/workers/chat/compose-reply/models.go
package composereply

type Input struct {
	TemplateText string `json:"templateText"`
	TemplateID   string `json:"templateId,omitempty"`
	Intent       string `json:"intent,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
}

type Output struct {
	Reply      string `json:"reply"`
	Truncated  bool   `json:"truncated"`
	ComposedAt string `json:"composedAt"` // ISO 8601
}
