package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/aptos-capability/internal/aptos"
	"github.com/vultisig/aptos-capability/internal/capability"
)

// Offerer runs one capability offer end to end.
type Offerer interface {
	Offer(ctx context.Context, kind capability.Kind, source aptos.Signer, recipient aptos.AccountAddress) (capability.OfferResult, error)
}

type Consumer struct {
	logger  *logrus.Entry
	offerer Offerer
	keys    *Keyring
	locks   *accountLocks
	timeout time.Duration
}

func NewConsumer(logger *logrus.Logger, offerer Offerer, keys *Keyring) *Consumer {
	return &Consumer{
		logger:  logger.WithField("pkg", "worker.Consumer"),
		offerer: offerer,
		keys:    keys,
		locks:   newAccountLocks(),
		timeout: 5 * time.Minute,
	}
}

func (c *Consumer) handle(ctx context.Context, t *asynq.Task) error {
	task, kind, err := parseOfferTask(t)
	if err != nil {
		return err
	}

	source, err := c.keys.Signer(task.Source)
	if err != nil {
		return fmt.Errorf("failed to get signer: %w", err)
	}

	// The sequence number read at build time must still be current at submit.
	unlock, err := c.locks.lock(ctx, task.Source)
	if err != nil {
		return fmt.Errorf("failed to wait for source %s: %w", task.Source, err)
	}
	defer unlock()

	res, err := c.offerer.Offer(ctx, kind, source, task.Recipient)
	if err != nil {
		return fmt.Errorf("failed to offer %s capability: %w", kind, err)
	}

	c.logger.WithFields(logrus.Fields{
		"task_id":   task.ID.String(),
		"kind":      kind.String(),
		"source":    task.Source.String(),
		"recipient": task.Recipient.String(),
		"hash":      res.Transaction.Hash,
	}).Info("offer task done")
	return nil
}

func (c *Consumer) Handle(ctx context.Context, t *asynq.Task) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.handle(ctx, t)
	if err != nil {
		c.logger.WithError(err).WithField("stage", capability.StageOf(err)).Error("failed to handle offer task")
		return asynq.SkipRetry
	}
	return nil
}
