package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vultisig/aptos-capability/internal/aptos"
	"github.com/vultisig/aptos-capability/internal/capability"
	"github.com/vultisig/aptos-capability/internal/graceful"
	"github.com/vultisig/aptos-capability/internal/logging"
)

func main() {
	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logger := logging.NewLogger(cfg.LogFormat)

	ctx, cancel := graceful.WithSigint(context.Background())
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, cfg.Timeout)
	defer cancelTimeout()

	err = run(ctx, cfg, logger)
	if err != nil {
		logger.WithField("stage", capability.StageOf(err)).Fatalf("offer failed: %v", err)
	}
}

func run(ctx context.Context, cfg config, logger *logrus.Logger) error {
	source, err := aptos.NewAccountFromHex(cfg.SourcePrivateKey)
	if err != nil {
		return fmt.Errorf("failed to load source key: %w", err)
	}
	recipient, recipientAccount, err := resolveRecipient(cfg)
	if err != nil {
		return err
	}
	kinds, err := capability.ParseKinds(cfg.Offers)
	if err != nil {
		return fmt.Errorf("failed to parse offers: %w", err)
	}
	capCfg, err := cfg.Settings.Config()
	if err != nil {
		return err
	}

	client := cfg.Aptos.NewClient()
	network := capability.NewNetwork(logger, client, client, nil, capCfg)

	fmt.Printf("source:     %s\n", source.Address())
	fmt.Printf("public key: %x\n", source.PublicKey())
	fmt.Printf("recipient:  %s\n", recipient)

	for _, kind := range capability.Kinds() {
		signed, er := network.Prepare(ctx, kind, source, recipient)
		if er != nil {
			return fmt.Errorf("failed to prepare %s offer: %w", kind, er)
		}
		fmt.Printf("%s signature: %s\n", kind.StructName(), signed.Signature.Hex())
	}

	for _, kind := range kinds {
		res, er := network.Offer(ctx, kind, source, recipient)
		if er != nil {
			return er
		}
		fmt.Printf("%s: hash=%s version=%d vm_status=%q gas_used=%d\n",
			res.Function, res.Transaction.Hash, res.Transaction.Version, res.Transaction.VMStatus, res.Transaction.GasUsed)
	}

	if cfg.RetrieveFunction == "" {
		return nil
	}
	if recipientAccount == nil {
		logger.Warn("RETRIEVE_FUNCTION set without RECIPIENT_PRIVATE_KEY, skipping retrieve")
		return nil
	}
	retrieve, err := aptos.ParseFunctionID(cfg.RetrieveFunction)
	if err != nil {
		return fmt.Errorf("failed to parse retrieve function: %w", err)
	}
	if network.Dispatcher().TryRetrieveCapability(ctx, recipientAccount, retrieve) {
		fmt.Printf("%s: ok\n", retrieve)
	}
	return nil
}

// resolveRecipient prefers RECIPIENT_ADDRESS; the recipient key, when
// present, is only needed for the retrieve call.
func resolveRecipient(cfg config) (aptos.AccountAddress, *aptos.Account, error) {
	var account *aptos.Account
	if cfg.RecipientPrivateKey != "" {
		acc, err := aptos.NewAccountFromHex(cfg.RecipientPrivateKey)
		if err != nil {
			return aptos.AccountAddress{}, nil, fmt.Errorf("failed to load recipient key: %w", err)
		}
		account = acc
	}

	switch {
	case cfg.RecipientAddress != "":
		addr, err := capability.ParseRecipient(cfg.RecipientAddress)
		if err != nil {
			return aptos.AccountAddress{}, nil, err
		}
		if account != nil && account.Address() != addr {
			account = account.WithAddress(addr)
		}
		return addr, account, nil
	case account != nil:
		return account.Address(), account, nil
	default:
		return aptos.AccountAddress{}, nil, errors.New("RECIPIENT_ADDRESS or RECIPIENT_PRIVATE_KEY is required")
	}
}
