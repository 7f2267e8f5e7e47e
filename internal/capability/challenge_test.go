package capability

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/aptos-capability/internal/aptos"
)

var (
	sourceAddr    = aptos.AccountAddress{0: 0xaa, 31: 0x01}
	recipientAddr = aptos.AccountAddress{0: 0xbb, 31: 0x02}
)

func mustEncode(t *testing.T, c ProofChallenge) []byte {
	t.Helper()
	b, err := c.Encode()
	require.NoError(t, err)
	return b
}

func TestEncode_RotationScenario(t *testing.T) {
	encoded := mustEncode(t, NewRotationChallenge(2, 5, sourceAddr, recipientAddr))

	var expected []byte
	expected = append(expected, aptos.CoreCodeAddress[:]...)
	expected = append(expected, 0x07)
	expected = append(expected, "account"...)
	expected = append(expected, 0x27)
	expected = append(expected, "RotationCapabilityOfferProofChallengeV2"...)
	expected = append(expected, 0x02)
	expected = append(expected, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	expected = append(expected, sourceAddr[:]...)
	expected = append(expected, recipientAddr[:]...)

	assert.Equal(t, expected, encoded)
}

func TestEncode_SignerLayout(t *testing.T) {
	encoded := mustEncode(t, NewSignerChallenge(5, sourceAddr, recipientAddr))

	var expected []byte
	expected = append(expected, aptos.CoreCodeAddress[:]...)
	expected = append(expected, 0x07)
	expected = append(expected, "account"...)
	expected = append(expected, 0x25)
	expected = append(expected, "SignerCapabilityOfferProofChallengeV2"...)
	expected = append(expected, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	expected = append(expected, sourceAddr[:]...)
	expected = append(expected, recipientAddr[:]...)

	assert.Equal(t, expected, encoded)
}

func TestEncode_Deterministic(t *testing.T) {
	for _, c := range []ProofChallenge{
		NewSignerChallenge(17, sourceAddr, recipientAddr),
		NewRotationChallenge(4, 17, sourceAddr, recipientAddr),
	} {
		assert.Equal(t, mustEncode(t, c), mustEncode(t, c))
	}
}

func TestEncode_VariantsNeverCollide(t *testing.T) {
	signer := mustEncode(t, NewSignerChallenge(9, sourceAddr, recipientAddr))
	rotation := mustEncode(t, NewRotationChallenge(0, 9, sourceAddr, recipientAddr))

	assert.NotEqual(t, signer, rotation)
}

func TestEncode_EveryFieldMatters(t *testing.T) {
	base := NewRotationChallenge(2, 5, sourceAddr, recipientAddr)
	baseBytes := mustEncode(t, base)

	otherAddr := aptos.AccountAddress{0: 0xcc}
	variations := map[string]ProofChallenge{
		"sequence number":   NewRotationChallenge(2, 6, sourceAddr, recipientAddr),
		"chain id":          NewRotationChallenge(3, 5, sourceAddr, recipientAddr),
		"source address":    NewRotationChallenge(2, 5, otherAddr, recipientAddr),
		"recipient address": NewRotationChallenge(2, 5, sourceAddr, otherAddr),
		"swapped addresses": NewRotationChallenge(2, 5, recipientAddr, sourceAddr),
	}

	for name, c := range variations {
		assert.NotEqual(t, baseBytes, mustEncode(t, c), name)
	}

	signerBase := mustEncode(t, NewSignerChallenge(5, sourceAddr, recipientAddr))
	assert.NotEqual(t, signerBase, mustEncode(t, NewSignerChallenge(6, sourceAddr, recipientAddr)))
	assert.NotEqual(t, signerBase, mustEncode(t, NewSignerChallenge(5, otherAddr, recipientAddr)))
	assert.NotEqual(t, signerBase, mustEncode(t, NewSignerChallenge(5, sourceAddr, otherAddr)))
}

func TestEncode_Boundaries(t *testing.T) {
	for _, seq := range []uint64{0, math.MaxUint64} {
		for _, chainID := range []uint8{0, math.MaxUint8} {
			c := NewRotationChallenge(chainID, seq, sourceAddr, recipientAddr)
			encoded := mustEncode(t, c)

			decoded, err := DecodeProofChallenge(encoded)
			require.NoError(t, err)
			assert.Equal(t, seq, decoded.SequenceNumber())
			assert.Equal(t, chainID, decoded.ChainID())
		}
	}

	maxSeq := mustEncode(t, NewSignerChallenge(math.MaxUint64, sourceAddr, recipientAddr))
	assert.True(t, bytes.Contains(maxSeq, bytes.Repeat([]byte{0xff}, 8)))
}

func TestDecode_RoundTrip(t *testing.T) {
	for _, c := range []ProofChallenge{
		NewSignerChallenge(123456789, sourceAddr, recipientAddr),
		NewRotationChallenge(37, 987654321, sourceAddr, recipientAddr),
	} {
		decoded, err := DecodeProofChallenge(mustEncode(t, c))
		require.NoError(t, err)

		assert.Equal(t, c.Kind(), decoded.Kind())
		assert.Equal(t, c.SequenceNumber(), decoded.SequenceNumber())
		assert.Equal(t, c.ChainID(), decoded.ChainID())
		assert.Equal(t, c.SourceAddress(), decoded.SourceAddress())
		assert.Equal(t, c.RecipientAddress(), decoded.RecipientAddress())
		assert.Equal(t, c.ModuleAddress(), decoded.ModuleAddress())
		assert.Equal(t, c.ModuleName(), decoded.ModuleName())
		assert.Equal(t, c.StructName(), decoded.StructName())
		assert.Equal(t, mustEncode(t, c), mustEncode(t, decoded))
	}
}

func TestDecode_Rejects(t *testing.T) {
	valid := mustEncode(t, NewSignerChallenge(1, sourceAddr, recipientAddr))

	wrongModule := append([]byte{}, valid...)
	wrongModule[31] = 0x02

	unknownStruct := append([]byte{}, valid[:40]...)
	unknownStruct = append(unknownStruct, 0x03, 'F', 'o', 'o')
	unknownStruct = append(unknownStruct, valid[40+1+37:]...)

	tests := map[string][]byte{
		"empty":          nil,
		"truncated":      valid[:len(valid)-1],
		"trailing":       append(append([]byte{}, valid...), 0x00),
		"wrong module":   wrongModule,
		"unknown struct": unknownStruct,
	}

	for name, data := range tests {
		_, err := DecodeProofChallenge(data)
		var encErr *EncodingError
		assert.ErrorAs(t, err, &encErr, name)
	}
}

func TestEncode_ZeroValueFails(t *testing.T) {
	_, err := ProofChallenge{}.Encode()

	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "kind", encErr.Field)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestEncode_MissingFieldFails(t *testing.T) {
	c := ProofChallenge{kind: KindRotationCapabilityOffer, set: map[field]bool{fieldSequenceNumber: true}}

	_, err := c.Encode()
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "chainId", encErr.Field)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestKind(t *testing.T) {
	tests := []struct {
		input    string
		expected Kind
	}{
		{"signer", KindSignerCapabilityOffer},
		{" Rotation ", KindRotationCapabilityOffer},
		{"SignerCapabilityOfferProofChallengeV2", KindSignerCapabilityOffer},
	}
	for _, tt := range tests {
		k, err := ParseKind(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, k)
	}

	_, err := ParseKind("custody")
	assert.ErrorIs(t, err, ErrUnknownKind)

	assert.Equal(t, "0x1::account::offer_signer_capability", KindSignerCapabilityOffer.Function().String())
	assert.Equal(t, "0x1::account::offer_rotation_capability", KindRotationCapabilityOffer.Function().String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
