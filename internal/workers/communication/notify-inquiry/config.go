// internal/workers/communication/notify-inquiry/config.go
package notifyinquiry

import "time"

type Config struct {
	SalesTeamEmail   string
	SalesOnCallPhone string
	FromEmail        string
	AWSRegion        string
	EmailEnabled     bool
	SMSEnabled       bool
	Timeout          time.Duration
}

func LoadConfig() *Config {
	return &Config{
		SalesTeamEmail: "sales@horizontechexpo.com",
		FromEmail:      "noreply@horizontechexpo.com",
		AWSRegion:      "us-east-1",
		EmailEnabled:   true,
		SMSEnabled:     true,
		Timeout:        30 * time.Second,
	}
}
