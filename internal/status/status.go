package status

import (
	"context"
	"time"
)

type TxOnChainStatus string

const (
	TxOnChainPending TxOnChainStatus = "PENDING"
	TxOnChainSuccess TxOnChainStatus = "SUCCESS"
	TxOnChainFail    TxOnChainStatus = "FAIL"
)

// Caller reports the on-chain status of a submitted transaction.
type Caller interface {
	GetTxStatus(ctx context.Context, txHash string) (TxOnChainStatus, error)
}

type Status struct {
	caller   Caller
	interval time.Duration
}

func NewStatus(caller Caller) *Status {
	return &Status{
		caller:   caller,
		interval: time.Second,
	}
}

// WithInterval overrides the poll interval.
func (s *Status) WithInterval(interval time.Duration) *Status {
	return &Status{
		caller:   s.caller,
		interval: interval,
	}
}

// WaitMined polls until the transaction leaves the pending state or ctx ends.
func (s *Status) WaitMined(ctx context.Context, txHash string) (TxOnChainStatus, error) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			status, err := s.caller.GetTxStatus(ctx, txHash)
			if err != nil {
				return "", err
			}
			if status != TxOnChainPending {
				return status, nil
			}
		}
	}
}
