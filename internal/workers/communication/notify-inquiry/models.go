// internal/workers/communication/notify-inquiry/models.go
package notifyinquiry

type Input struct {
	InquiryID    string                 `json:"inquiryId"`
	CompanyName  string                 `json:"companyName"`
	ContactEmail string                 `json:"contactEmail"`
	ContactPhone string                 `json:"contactPhone,omitempty"`
	Intent       string                 `json:"intent"`
	Priority     string                 `json:"priority,omitempty"` // "high" escalates to SMS
	Message      string                 `json:"message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"`
	Channels       []string `json:"channels,omitempty"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Notification statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Priorities
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)
