package metrics

// Package metrics provides Prometheus metrics for the capability services.
//
// This package includes:
// - capability offer metrics (outcomes, failing stage, latency)
// - HTTP request metrics for the health endpoint
// - Metrics HTTP server on configurable port
//
// Usage:
//   import "github.com/vultisig/aptos-capability/internal/metrics"
//
//   metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceOffer}, logger)
//   defer metricsServer.Stop(context.Background())
//
//   network := capability.NewNetwork(logger, client, client, metrics.NewOfferMetrics(), capCfg)
