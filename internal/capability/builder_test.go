package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/aptos-capability/internal/aptos"
)

func TestBuilder_BuildSignerOffer(t *testing.T) {
	source := testAccount(t, 1)
	ledger := newFakeLedger(2)
	ledger.setSequence(source.Address(), 11)

	c, err := NewBuilder(ledger).BuildSignerOffer(context.Background(), source, recipientAddr)
	require.NoError(t, err)

	assert.Equal(t, KindSignerCapabilityOffer, c.Kind())
	assert.Equal(t, uint64(11), c.SequenceNumber())
	assert.Equal(t, source.Address(), c.SourceAddress())
	assert.Equal(t, recipientAddr, c.RecipientAddress())
	assert.Equal(t, "offer_signer_capability", c.FunctionName())
}

func TestBuilder_BuildRotationOffer(t *testing.T) {
	source := testAccount(t, 1)
	ledger := newFakeLedger(2)
	ledger.setSequence(source.Address(), 5)

	c, err := NewBuilder(ledger).BuildRotationOffer(context.Background(), source, recipientAddr)
	require.NoError(t, err)

	assert.Equal(t, KindRotationCapabilityOffer, c.Kind())
	assert.Equal(t, uint8(2), c.ChainID())
	assert.Equal(t, uint64(5), c.SequenceNumber())
	assert.Equal(t, "offer_rotation_capability", c.FunctionName())
}

func TestBuilder_ReadsSequenceEveryTime(t *testing.T) {
	source := testAccount(t, 1)
	ledger := newFakeLedger(2)
	builder := NewBuilder(ledger)

	ledger.setSequence(source.Address(), 1)
	first, err := builder.BuildSignerOffer(context.Background(), source, recipientAddr)
	require.NoError(t, err)

	ledger.setSequence(source.Address(), 2)
	second, err := builder.BuildSignerOffer(context.Background(), source, recipientAddr)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.SequenceNumber())
	assert.Equal(t, uint64(2), second.SequenceNumber())
	assert.Equal(t, 2, ledger.seqCalls)
}

func TestBuilder_LookupErrors(t *testing.T) {
	source := testAccount(t, 1)
	nodeDown := errors.New("connection refused")

	t.Run("unknown account", func(t *testing.T) {
		_, err := NewBuilder(newFakeLedger(2)).BuildSignerOffer(context.Background(), source, recipientAddr)

		var lookupErr *AccountLookupError
		require.ErrorAs(t, err, &lookupErr)
		assert.Equal(t, source.Address(), lookupErr.Address)
		assert.Equal(t, "sequence number", lookupErr.Lookup)
		assert.ErrorIs(t, err, aptos.ErrAccountNotFound)
	})

	t.Run("chain id unavailable", func(t *testing.T) {
		ledger := newFakeLedger(2)
		ledger.setSequence(source.Address(), 1)
		ledger.chainErr = nodeDown

		_, err := NewBuilder(ledger).BuildRotationOffer(context.Background(), source, recipientAddr)

		var lookupErr *AccountLookupError
		require.ErrorAs(t, err, &lookupErr)
		assert.Equal(t, "chain id", lookupErr.Lookup)
		assert.ErrorIs(t, err, nodeDown)
	})

	t.Run("sequence unavailable for rotation", func(t *testing.T) {
		ledger := newFakeLedger(2)
		ledger.seqErr = nodeDown

		_, err := NewBuilder(ledger).BuildRotationOffer(context.Background(), source, recipientAddr)

		var lookupErr *AccountLookupError
		require.ErrorAs(t, err, &lookupErr)
		assert.Equal(t, StageLookup, StageOf(err))
	})
}

func TestBuilder_UnknownKind(t *testing.T) {
	_, err := NewBuilder(newFakeLedger(2)).Build(context.Background(), Kind(0), testAccount(t, 1), recipientAddr)
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Equal(t, StageEncode, StageOf(err))
}

func TestParseRecipient(t *testing.T) {
	addr, err := ParseRecipient(recipientAddr.String())
	require.NoError(t, err)
	assert.Equal(t, recipientAddr, addr)

	_, err = ParseRecipient("0xbb")
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "recipientAddress", encErr.Field)
	assert.ErrorIs(t, err, aptos.ErrInvalidAddress)
}
