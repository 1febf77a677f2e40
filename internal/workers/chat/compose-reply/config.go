// internal/workers/chat/compose-reply/config.go
package composereply

import "time"

type Config struct {
	MaxReplyLength int
	SessionTTL     time.Duration
	Timeout        time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxReplyLength: 2000,
		SessionTTL:     30 * time.Minute,
		Timeout:        15 * time.Second,
	}
}
