package aptos

import "time"

// Config is read with the APTOS_ prefix, e.g. APTOS_NODE_URL.
type Config struct {
	NodeURL string    `envconfig:"NODE_URL" default:"https://fullnode.devnet.aptoslabs.com/v1"`
	Gas     GasConfig `envconfig:"GAS"`
}

type GasConfig struct {
	MaxAmount     uint64        `envconfig:"MAX_AMOUNT" default:"200000"`
	UnitPrice     uint64        `envconfig:"UNIT_PRICE" default:"100"`
	ExpirationTTL time.Duration `envconfig:"EXPIRATION_TTL" default:"10m"`
}

func (c Config) TxOptions() TxOptions {
	opts := DefaultTxOptions()
	if c.Gas.MaxAmount > 0 {
		opts.MaxGasAmount = c.Gas.MaxAmount
	}
	if c.Gas.UnitPrice > 0 {
		opts.GasUnitPrice = c.Gas.UnitPrice
	}
	if c.Gas.ExpirationTTL > 0 {
		opts.ExpirationTTL = c.Gas.ExpirationTTL
	}
	return opts
}

func (c Config) NewClient() *Client {
	return NewClient(c.NodeURL, c.TxOptions())
}
