// internal/workers/data-access/query-financials/config.go
package queryfinancials

import "time"

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration // 0 disables result caching
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  30 * time.Second,
		CacheTTL: 5 * time.Minute,
	}
}
