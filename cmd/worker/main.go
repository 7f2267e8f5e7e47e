package main

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vultisig/aptos-capability/internal/aptos"
	"github.com/vultisig/aptos-capability/internal/capability"
	"github.com/vultisig/aptos-capability/internal/graceful"
	"github.com/vultisig/aptos-capability/internal/health"
	"github.com/vultisig/aptos-capability/internal/logging"
	"github.com/vultisig/aptos-capability/internal/metrics"
	"github.com/vultisig/aptos-capability/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := newConfig()
	if err != nil {
		panic(err)
	}

	logger := logging.NewLogger(cfg.LogFormat)

	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceHTTP, metrics.ServiceOffer}, logger)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		if er := metricsServer.Stop(stopCtx); er != nil {
			logger.Errorf("failed to stop metrics server: %v", er)
		}
	}()

	capCfg, err := cfg.Settings.Config()
	if err != nil {
		logger.Fatalf("failed to parse capability settings: %v", err)
	}

	keys := worker.NewKeyring()
	for _, hexKey := range cfg.SourcePrivateKeys {
		acc, er := aptos.NewAccountFromHex(hexKey)
		if er != nil {
			logger.Fatalf("failed to load source key: %v", er)
		}
		keys.Add(acc)
		logger.Infof("loaded source account %s", acc.Address())
	}

	redisConnOpt, err := cfg.Redis.ConnOpt()
	if err != nil {
		logger.Fatalf("failed to parse redis config: %v", err)
	}

	client := cfg.Aptos.NewClient()
	network := capability.NewNetwork(logger, client, client, metrics.NewOfferMetrics(), capCfg)
	consumer := worker.NewConsumer(logger, network, keys)

	healthServer := health.New(cfg.HealthPort).WithChecker("aptos", func(ctx context.Context) error {
		_, er := client.GetChainID(ctx)
		return er
	})
	go func() {
		er := healthServer.Start(ctx, logger)
		if er != nil {
			logger.Errorf("health server failed: %v", er)
		}
	}()

	srv := asynq.NewServer(
		redisConnOpt,
		asynq.Config{
			Logger:      logger,
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				worker.QueueName: 10,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(worker.TypeCapabilityOffer, consumer.Handle)

	err = srv.Start(mux)
	if err != nil {
		logger.Fatalf("failed to start consumer: %v", err)
	}

	<-graceful.MakeSigintChan()
	logger.Info("shutting down")
	srv.Shutdown()
}
