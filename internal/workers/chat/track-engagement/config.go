// internal/workers/chat/track-engagement/config.go
package trackengagement

import "time"

type Config struct {
	Index      string
	CounterTTL time.Duration
	Timeout    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Index:      "chat-engagement",
		CounterTTL: 24 * time.Hour,
		Timeout:    15 * time.Second,
	}
}
