package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/vultisig/aptos-capability/internal/aptos"
	"github.com/vultisig/aptos-capability/internal/capability"
	"github.com/vultisig/aptos-capability/internal/logging"
)

type config struct {
	LogFormat           logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`
	Aptos               aptos.Config
	SourcePrivateKey    string        `envconfig:"SOURCE_PRIVATE_KEY" required:"true"`
	RecipientAddress    string        `envconfig:"RECIPIENT_ADDRESS"`
	RecipientPrivateKey string        `envconfig:"RECIPIENT_PRIVATE_KEY"`
	Offers              []string      `envconfig:"OFFERS" default:"signer"`
	RetrieveFunction    string        `envconfig:"RETRIEVE_FUNCTION"`
	Timeout             time.Duration `envconfig:"TIMEOUT" default:"15m"`
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
