package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/vultisig/aptos-capability/internal/aptos"
	"github.com/vultisig/aptos-capability/internal/capability"
	"github.com/vultisig/aptos-capability/internal/logging"
	"github.com/vultisig/aptos-capability/internal/metrics"
	"github.com/vultisig/aptos-capability/internal/worker"
)

type config struct {
	LogFormat         logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`
	Aptos             aptos.Config
	Redis             worker.RedisConfig
	Metrics           metrics.Config
	HealthPort        int      `envconfig:"HEALTH_PORT" default:"8081"`
	Concurrency       int      `envconfig:"CONCURRENCY" default:"10"`
	SourcePrivateKeys []string `envconfig:"SOURCE_PRIVATE_KEYS" required:"true"`
	capability.Settings
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
