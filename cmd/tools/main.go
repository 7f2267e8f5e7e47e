package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/vultisig/aptos-capability/internal/aptos"
	"github.com/vultisig/aptos-capability/internal/capability"
	"github.com/vultisig/aptos-capability/internal/worker"
)

var (
	redisURI   = flag.String("redis", "redis://localhost:6379", "redis uri of the worker queue")
	source     = flag.String("source", "", "source account address")
	recipient  = flag.String("recipient", "", "recipient account address")
	challenge  = flag.String("challenge", "", "hex encoded proof challenge to decode")
	flatPreset = flag.String("preset", "", "preset to execute")
)

var presets = map[string]func(context.Context) error{
	"offerSigner":   enqueue(capability.KindSignerCapabilityOffer),
	"offerRotation": enqueue(capability.KindRotationCapabilityOffer),
	"decode":        decode,
}

func main() {
	flag.Parse()

	if *flatPreset == "" {
		panic("preset is required")
	}
	preset, ok := presets[*flatPreset]
	if !ok {
		panic("unknown preset: " + *flatPreset)
	}

	ctx := context.Background()
	err := preset(ctx)
	if err != nil {
		panic(err)
	}
}

func enqueue(kind capability.Kind) func(context.Context) error {
	return func(ctx context.Context) error {
		src, err := aptos.ParseAddress(*source)
		if err != nil {
			return fmt.Errorf("failed to parse source: %w", err)
		}
		rcpt, err := capability.ParseRecipient(*recipient)
		if err != nil {
			return err
		}

		task, err := worker.NewOfferTask(kind, src, rcpt)
		if err != nil {
			return err
		}

		connOpt, err := worker.RedisConfig{URI: *redisURI}.ConnOpt()
		if err != nil {
			return err
		}
		client := asynq.NewClient(connOpt)
		defer func() {
			_ = client.Close()
		}()

		info, err := client.EnqueueContext(ctx, task)
		if err != nil {
			return fmt.Errorf("failed to enqueue task: %w", err)
		}
		fmt.Printf("enqueued %s offer: id=%s queue=%s\n", kind, info.ID, info.Queue)
		return nil
	}
}

func decode(_ context.Context) error {
	raw, err := hex.DecodeString(strings.TrimPrefix(*challenge, "0x"))
	if err != nil {
		return fmt.Errorf("failed to decode hex: %w", err)
	}
	c, err := capability.DecodeProofChallenge(raw)
	if err != nil {
		return err
	}

	fmt.Printf("struct:    %s::%s::%s\n", c.ModuleAddress().ShortString(), c.ModuleName(), c.StructName())
	if c.Kind() == capability.KindRotationCapabilityOffer {
		fmt.Printf("chain id:  %d\n", c.ChainID())
	}
	fmt.Printf("sequence:  %d\n", c.SequenceNumber())
	fmt.Printf("source:    %s\n", c.SourceAddress())
	fmt.Printf("recipient: %s\n", c.RecipientAddress())
	fmt.Printf("function:  %s\n", c.Kind().Function())
	return nil
}
