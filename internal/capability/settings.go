package capability

import (
	"fmt"

	"github.com/vultisig/aptos-capability/internal/aptos"
)

// Settings is the env form of Config.
// Empty layouts and functions keep the per-kind defaults. A bytes or
// simplified layout needs a custom function.
type Settings struct {
	AccountScheme    uint8  `envconfig:"ACCOUNT_SCHEME" default:"0"`
	SignerLayout     string `envconfig:"SIGNER_LAYOUT"`
	RotationLayout   string `envconfig:"ROTATION_LAYOUT"`
	SignerFunction   string `envconfig:"SIGNER_FUNCTION"`
	RotationFunction string `envconfig:"ROTATION_FUNCTION"`
}

func (s Settings) Config() (Config, error) {
	cfg := Config{
		SchemeTag: s.AccountScheme,
		Layouts:   make(map[Kind]ArgLayout),
		Functions: make(map[Kind]aptos.FunctionID),
	}

	for kind, name := range map[Kind]string{
		KindSignerCapabilityOffer:   s.SignerLayout,
		KindRotationCapabilityOffer: s.RotationLayout,
	} {
		if name == "" {
			continue
		}
		layout, err := ParseArgLayout(name)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse %s layout: %w", kind, err)
		}
		cfg.Layouts[kind] = layout
	}

	for kind, id := range map[Kind]string{
		KindSignerCapabilityOffer:   s.SignerFunction,
		KindRotationCapabilityOffer: s.RotationFunction,
	} {
		if id == "" {
			continue
		}
		fn, err := aptos.ParseFunctionID(id)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse %s function: %w", kind, err)
		}
		cfg.Functions[kind] = fn
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseKinds parses a list of kind names, e.g. from OFFERS=signer,rotation.
func ParseKinds(names []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(names))
	for _, name := range names {
		kind, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
