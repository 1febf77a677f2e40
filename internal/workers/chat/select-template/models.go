// internal/workers/chat/select-template/models.go
package selecttemplate

type Input struct {
	Intent    string `json:"intent"`
	Topic     string `json:"topic,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type Output struct {
	TemplateID      string `json:"templateId"`
	TemplateText    string `json:"templateText"`
	TemplateVersion string `json:"templateVersion"`
	FallbackUsed    bool   `json:"fallbackUsed"`
}
