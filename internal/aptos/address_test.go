package aptos

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func TestParseAddress(t *testing.T) {
	full := "0x" + strings.Repeat("ab", 32)

	tests := []struct {
		name        string
		input       string
		expectError bool
	}{
		{name: "prefixed", input: full},
		{name: "unprefixed", input: strings.Repeat("ab", 32)},
		{name: "short form", input: "0x1", expectError: true},
		{name: "too long", input: full + "00", expectError: true},
		{name: "not hex", input: "0x" + strings.Repeat("zz", 32), expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddress(tt.input)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, full, addr.String())
		})
	}
}

func TestAddressFromBytes_RejectsWrongWidth(t *testing.T) {
	_, err := AddressFromBytes(make([]byte, 31))
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = AddressFromBytes(make([]byte, 33))
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestCoreCodeAddress(t *testing.T) {
	assert.True(t, CoreCodeAddress.IsSpecial())
	assert.Equal(t, "0x1", CoreCodeAddress.ShortString())
	assert.Equal(t, "0x"+strings.Repeat("0", 63)+"1", CoreCodeAddress.String())
}

func TestDeriveAddress(t *testing.T) {
	pub := ed25519.NewKeyFromSeed(make([]byte, 32)).Public().(ed25519.PublicKey)

	expected := sha3.Sum256(append(append([]byte{}, pub...), Ed25519Scheme))
	assert.Equal(t, AccountAddress(expected), DeriveAddress(pub, Ed25519Scheme))
	assert.NotEqual(t, DeriveAddress(pub, 0), DeriveAddress(pub, 1))
}

func TestAccountAddress_TextRoundTrip(t *testing.T) {
	addr := AccountAddress{0: 0xfe, 31: 0x42}

	text, err := addr.MarshalText()
	require.NoError(t, err)

	var decoded AccountAddress
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, addr, decoded)
}

func TestNewAccountFromHex(t *testing.T) {
	seed := strings.Repeat("01", 32)

	fromSeed, err := NewAccountFromHex("0x" + seed)
	require.NoError(t, err)

	key := ed25519.NewKeyFromSeed(mustHex(t, seed))
	fromKey, err := NewAccount(key)
	require.NoError(t, err)

	assert.Equal(t, fromKey.Address(), fromSeed.Address())
	assert.Equal(t, []byte(key.Public().(ed25519.PublicKey)), fromSeed.PublicKey())
	assert.Equal(t, DeriveAddress(fromSeed.PublicKey(), Ed25519Scheme), fromSeed.Address())

	_, err = NewAccountFromHex("0x1234")
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)

	_, err = NewAccountFromHex("not-hex")
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestAccount_WithAddress(t *testing.T) {
	acc, err := GenerateAccount()
	require.NoError(t, err)

	other := AccountAddress{31: 0x99}
	rebound := acc.WithAddress(other)

	assert.Equal(t, other, rebound.Address())
	assert.Equal(t, acc.PublicKey(), rebound.PublicKey())

	msg := []byte("message")
	sig, err := rebound.Sign(msg)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(acc.PublicKey(), msg, sig))
}
