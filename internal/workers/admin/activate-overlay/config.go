// internal/workers/admin/activate-overlay/config.go
package activateoverlay

import "time"

type Config struct {
	SchemaPath string // JSON schema for overlay payloads, empty skips validation
	Timeout    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		SchemaPath: "configs/overlay-schema.json",
		Timeout:    15 * time.Second,
	}
}
