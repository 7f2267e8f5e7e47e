package capability

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vultisig/aptos-capability/internal/aptos"
)

// Metrics receives offer outcomes.
type Metrics interface {
	RecordOffer(kind string, success bool, duration time.Duration)
	RecordStageError(kind, stage string)
}

type nilMetrics struct{}

func (nilMetrics) RecordOffer(string, bool, time.Duration) {}

func (nilMetrics) RecordStageError(string, string) {}

// NewNilMetrics returns a Metrics that drops everything.
func NewNilMetrics() Metrics {
	return nilMetrics{}
}

// Config tunes how offers are submitted. Zero values fall back to the
// per-kind defaults.
type Config struct {
	SchemeTag uint8
	Layouts   map[Kind]ArgLayout
	Functions map[Kind]aptos.FunctionID
}

func (c Config) layout(kind Kind) ArgLayout {
	if l, ok := c.Layouts[kind]; ok && l != 0 {
		return l
	}
	if c.function(kind) == kind.Function() {
		return LayoutFramework
	}
	return kind.DefaultLayout()
}

// Validate rejects layouts the 0x1::account offer functions cannot decode.
func (c Config) Validate() error {
	for _, kind := range Kinds() {
		if c.function(kind) == kind.Function() && c.layout(kind) != LayoutFramework {
			return fmt.Errorf("%w: %s layout for %s", ErrLayoutMismatch, c.layout(kind), kind.Function())
		}
	}
	return nil
}

func (c Config) function(kind Kind) aptos.FunctionID {
	if f, ok := c.Functions[kind]; ok && !f.IsZero() {
		return f
	}
	return kind.Function()
}

// OfferResult is a committed offer.
type OfferResult struct {
	Offer       SignedOffer
	Function    aptos.FunctionID
	Transaction aptos.TransactionResult
}

// Network runs the whole offer pipeline: build, encode, sign, submit.
type Network struct {
	logger     *logrus.Entry
	builder    *Builder
	dispatcher *Dispatcher
	metrics    Metrics
	cfg        Config
}

func NewNetwork(
	logger *logrus.Logger,
	ledger Ledger,
	submitter Submitter,
	metrics Metrics,
	cfg Config,
) *Network {
	if metrics == nil {
		metrics = NewNilMetrics()
	}
	return &Network{
		logger:     logger.WithField("pkg", "capability.Network"),
		builder:    NewBuilder(ledger),
		dispatcher: NewDispatcher(logger, submitter),
		metrics:    metrics,
		cfg:        cfg,
	}
}

func (n *Network) Dispatcher() *Dispatcher {
	return n.dispatcher
}

// Prepare builds and signs a challenge without submitting it.
func (n *Network) Prepare(ctx context.Context, kind Kind, source aptos.Signer, recipient aptos.AccountAddress) (SignedOffer, error) {
	challenge, err := n.builder.Build(ctx, kind, source, recipient)
	if err != nil {
		return SignedOffer{}, err
	}
	return SignChallenge(source, challenge, n.cfg.SchemeTag)
}

func (n *Network) OfferSignerCapability(ctx context.Context, source aptos.Signer, recipient aptos.AccountAddress) (OfferResult, error) {
	return n.Offer(ctx, KindSignerCapabilityOffer, source, recipient)
}

func (n *Network) OfferRotationCapability(ctx context.Context, source aptos.Signer, recipient aptos.AccountAddress) (OfferResult, error) {
	return n.Offer(ctx, KindRotationCapabilityOffer, source, recipient)
}

// Offer prepares and submits one offer. Errors keep their stage type.
func (n *Network) Offer(ctx context.Context, kind Kind, source aptos.Signer, recipient aptos.AccountAddress) (OfferResult, error) {
	start := time.Now()
	res, err := n.offer(ctx, kind, source, recipient)
	n.metrics.RecordOffer(kind.String(), err == nil, time.Since(start))

	logger := n.logger.WithFields(logrus.Fields{
		"kind":      kind.String(),
		"source":    source.Address().String(),
		"recipient": recipient.String(),
	})
	if err != nil {
		stage := StageOf(err)
		n.metrics.RecordStageError(kind.String(), string(stage))
		logger.WithError(err).WithField("stage", stage).Error("capability offer failed")
		return res, err
	}

	logger.WithFields(logrus.Fields{
		"sequence_number": res.Offer.Challenge.SequenceNumber(),
		"hash":            res.Transaction.Hash,
	}).Info("capability offered")
	return res, nil
}

func (n *Network) offer(ctx context.Context, kind Kind, source aptos.Signer, recipient aptos.AccountAddress) (OfferResult, error) {
	signed, err := n.Prepare(ctx, kind, source, recipient)
	if err != nil {
		return OfferResult{}, err
	}

	function := n.cfg.function(kind)
	tx, err := n.dispatcher.SubmitOffer(ctx, source, Offer{
		Function:  function,
		Layout:    n.cfg.layout(kind),
		Recipient: signed.Recipient,
		Signature: signed.Signature,
		PublicKey: signed.PublicKey,
		SchemeTag: signed.SchemeTag,
	})

	return OfferResult{
		Offer:       signed,
		Function:    function,
		Transaction: tx,
	}, err
}
