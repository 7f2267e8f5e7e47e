package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	offersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "capability",
			Subsystem: "offer",
			Name:      "offers_total",
			Help:      "Total number of capability offers",
		},
		[]string{"kind", "status"}, // signer/rotation, success/error
	)

	offerStageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "capability",
			Subsystem: "offer",
			Name:      "stage_errors_total",
			Help:      "Total number of failed offers by failing stage",
		},
		[]string{"kind", "stage"}, // lookup, encode, sign, submit
	)

	offerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "capability",
			Subsystem: "offer",
			Name:      "duration_seconds",
			Help:      "Time from challenge build to on-chain confirmation",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	offerLastSuccessTimestamp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "capability",
			Subsystem: "offer",
			Name:      "last_success_timestamp",
			Help:      "Timestamp of last committed offer",
		},
		[]string{"kind"},
	)
)

// OfferMetrics records capability offer outcomes
type OfferMetrics struct{}

func NewOfferMetrics() *OfferMetrics {
	return &OfferMetrics{}
}

func (om *OfferMetrics) RecordOffer(kind string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}

	offersTotal.WithLabelValues(kind, status).Inc()
	offerDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if success {
		offerLastSuccessTimestamp.WithLabelValues(kind).Set(float64(time.Now().Unix()))
	}
}

func (om *OfferMetrics) RecordStageError(kind, stage string) {
	if stage == "" {
		stage = "unknown"
	}
	offerStageErrorsTotal.WithLabelValues(kind, stage).Inc()
}
