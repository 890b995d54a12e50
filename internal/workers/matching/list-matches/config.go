// internal/workers/matching/list-matches/config.go
package listmatches

import (
	"time"

	"program-matching/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
}

func LoadConfig(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Timeout:      config.GetDuration(wcfg.Timeout),
		DefaultLimit: cfg.Matching.DefaultLimit,
	}
}
