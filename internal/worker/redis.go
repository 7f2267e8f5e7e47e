package worker

import (
	"fmt"

	"github.com/hibiken/asynq"
)

// RedisConfig is read with the REDIS_ prefix.
type RedisConfig struct {
	URI string `envconfig:"URI" default:"redis://localhost:6379"`
}

func (c RedisConfig) ConnOpt() (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(c.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis uri: %w", err)
	}
	return opt, nil
}
