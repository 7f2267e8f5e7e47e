package worker

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/vultisig/aptos-capability/internal/aptos"
	"github.com/vultisig/aptos-capability/internal/capability"
)

const (
	TypeCapabilityOffer = "capability:offer"
	QueueName           = "capability_offers"
)

// OfferTask asks the worker to offer one capability from Source to Recipient.
type OfferTask struct {
	ID        uuid.UUID            `json:"id"`
	Kind      string               `json:"kind"`
	Source    aptos.AccountAddress `json:"source"`
	Recipient aptos.AccountAddress `json:"recipient"`
}

// NewOfferTask builds a queue task. Offers are never retried.
func NewOfferTask(kind capability.Kind, source, recipient aptos.AccountAddress) (*asynq.Task, error) {
	id := uuid.New()
	payload, err := json.Marshal(OfferTask{
		ID:        id,
		Kind:      kind.String(),
		Source:    source,
		Recipient: recipient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal offer task: %w", err)
	}
	return asynq.NewTask(
		TypeCapabilityOffer,
		payload,
		asynq.TaskID(id.String()),
		asynq.Queue(QueueName),
		asynq.MaxRetry(0),
	), nil
}

func parseOfferTask(t *asynq.Task) (OfferTask, capability.Kind, error) {
	var task OfferTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		return OfferTask{}, 0, fmt.Errorf("failed to unmarshal offer task: %w", err)
	}
	kind, err := capability.ParseKind(task.Kind)
	if err != nil {
		return OfferTask{}, 0, fmt.Errorf("failed to parse kind: %w", err)
	}
	return task, kind, nil
}
