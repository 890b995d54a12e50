// internal/workers/matching/recompute-matches/config.go
package recomputematches

import (
	"time"

	"program-matching/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	PublishEvents bool
}

func LoadConfig(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Timeout:       config.GetDuration(wcfg.Timeout),
		PublishEvents: cfg.Notifications.SNS.Enabled,
	}
}
