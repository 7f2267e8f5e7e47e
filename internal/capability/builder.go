package capability

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vultisig/aptos-capability/internal/aptos"
)

// Ledger is the read side of the ledger client the builder needs.
type Ledger interface {
	GetChainID(ctx context.Context) (uint8, error)
	GetAccountSequenceNumber(ctx context.Context, addr aptos.AccountAddress) (uint64, error)
}

// Account is anything with an on-chain address.
type Account interface {
	Address() aptos.AccountAddress
}

// Builder reads fresh account state and assembles proof challenges. It does
// not cache or retry lookups.
type Builder struct {
	ledger Ledger
}

func NewBuilder(ledger Ledger) *Builder {
	return &Builder{
		ledger: ledger,
	}
}

func (b *Builder) BuildSignerOffer(ctx context.Context, source Account, recipient aptos.AccountAddress) (ProofChallenge, error) {
	addr := source.Address()

	seq, err := b.ledger.GetAccountSequenceNumber(ctx, addr)
	if err != nil {
		return ProofChallenge{}, &AccountLookupError{Address: addr, Lookup: "sequence number", Err: err}
	}

	return NewSignerChallenge(seq, addr, recipient), nil
}

func (b *Builder) BuildRotationOffer(ctx context.Context, source Account, recipient aptos.AccountAddress) (ProofChallenge, error) {
	addr := source.Address()

	var (
		chainID uint8
		seq     uint64
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		id, err := b.ledger.GetChainID(ctx)
		if err != nil {
			return &AccountLookupError{Address: addr, Lookup: "chain id", Err: err}
		}
		chainID = id
		return nil
	})
	g.Go(func() error {
		n, err := b.ledger.GetAccountSequenceNumber(ctx, addr)
		if err != nil {
			return &AccountLookupError{Address: addr, Lookup: "sequence number", Err: err}
		}
		seq = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return ProofChallenge{}, err
	}

	return NewRotationChallenge(chainID, seq, addr, recipient), nil
}

// Build dispatches on kind.
func (b *Builder) Build(ctx context.Context, kind Kind, source Account, recipient aptos.AccountAddress) (ProofChallenge, error) {
	switch kind {
	case KindSignerCapabilityOffer:
		return b.BuildSignerOffer(ctx, source, recipient)
	case KindRotationCapabilityOffer:
		return b.BuildRotationOffer(ctx, source, recipient)
	default:
		return ProofChallenge{}, &EncodingError{Field: "kind", Err: fmt.Errorf("%w: %d", ErrUnknownKind, kind)}
	}
}

// ParseRecipient parses a recipient address, reporting bad input as an
// encoding error on the recipient field.
func ParseRecipient(s string) (aptos.AccountAddress, error) {
	addr, err := aptos.ParseAddress(s)
	if err != nil {
		return aptos.AccountAddress{}, &EncodingError{Field: fieldRecipientAddress.String(), Err: err}
	}
	return addr, nil
}
