package aptos

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Ed25519Scheme is the authentication scheme tag of single-key ed25519 accounts.
const Ed25519Scheme uint8 = 0

var ErrInvalidPrivateKey = errors.New("aptos: invalid ed25519 private key")

// Signer is the account abstraction the rest of the service relies on.
type Signer interface {
	Address() AccountAddress
	PublicKey() []byte
	Sign(message []byte) ([]byte, error)
}

// Account is a local ed25519 account.
type Account struct {
	key     ed25519.PrivateKey
	address AccountAddress
}

// NewAccount wraps a private key, deriving the address from the public key.
func NewAccount(key ed25519.PrivateKey) (*Account, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPrivateKey, ed25519.PrivateKeySize, len(key))
	}
	pub := key.Public().(ed25519.PublicKey)
	return &Account{
		key:     key,
		address: DeriveAddress(pub, Ed25519Scheme),
	}, nil
}

// NewAccountFromHex accepts a hex-encoded 32-byte seed or 64-byte private key,
// optionally 0x-prefixed.
func NewAccountFromHex(s string) (*Account, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}

	switch len(raw) {
	case ed25519.SeedSize:
		return NewAccount(ed25519.NewKeyFromSeed(raw))
	case ed25519.PrivateKeySize:
		return NewAccount(ed25519.PrivateKey(raw))
	default:
		return nil, fmt.Errorf("%w: unexpected length %d", ErrInvalidPrivateKey, len(raw))
	}
}

// GenerateAccount creates an account with a fresh random key.
func GenerateAccount() (*Account, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("aptos: failed to generate key: %w", err)
	}
	return NewAccount(key)
}

// WithAddress returns a copy bound to addr, for accounts whose authentication
// key was rotated away from the derived address.
func (a *Account) WithAddress(addr AccountAddress) *Account {
	return &Account{key: a.key, address: addr}
}

func (a *Account) Address() AccountAddress {
	return a.address
}

func (a *Account) PublicKey() []byte {
	return []byte(a.key.Public().(ed25519.PublicKey))
}

func (a *Account) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(a.key, message), nil
}
