package aptos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_TxOptions(t *testing.T) {
	assert.Equal(t, DefaultTxOptions(), Config{}.TxOptions())

	opts := Config{Gas: GasConfig{MaxAmount: 5000, ExpirationTTL: time.Minute}}.TxOptions()
	assert.Equal(t, TxOptions{
		MaxGasAmount:  5000,
		GasUnitPrice:  DefaultTxOptions().GasUnitPrice,
		ExpirationTTL: time.Minute,
	}, opts)
}
