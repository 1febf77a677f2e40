// internal/workers/chat/select-template/config.go
package selecttemplate

import "time"

type Config struct {
	RegistryPath   string
	FallbackIntent string
	CacheTTL       time.Duration // registry reload interval, <= 0 pins the registry loaded at startup
	Timeout        time.Duration
}

func LoadConfig() *Config {
	return &Config{
		RegistryPath:   "configs/reply-registry.json",
		FallbackIntent: "general_query",
		CacheTTL:       5 * time.Minute,
		Timeout:        10 * time.Second,
	}
}
