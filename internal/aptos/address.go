package aptos

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/vultisig/aptos-capability/internal/bcs"
)

const AddressLength = 32

var ErrInvalidAddress = errors.New("aptos: invalid account address")

// AccountAddress is a 32-byte Aptos account address.
type AccountAddress [AddressLength]byte

// CoreCodeAddress is 0x1, the address the framework modules live under.
var CoreCodeAddress = AccountAddress{31: 0x01}

// ParseAddress parses a hex address. Only the full 64 hex digit form is
// accepted, with or without the 0x prefix.
func ParseAddress(s string) (AccountAddress, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(raw) != AddressLength*2 {
		return AccountAddress{}, fmt.Errorf("%w: expected %d hex digits, got %d", ErrInvalidAddress, AddressLength*2, len(raw))
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return AccountAddress{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return AddressFromBytes(b)
}

func AddressFromBytes(b []byte) (AccountAddress, error) {
	var addr AccountAddress
	if len(b) != AddressLength {
		return addr, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressLength, len(b))
	}
	copy(addr[:], b)
	return addr, nil
}

// DeriveAddress computes the address (initial authentication key) of an
// account from its public key and scheme tag.
func DeriveAddress(publicKey []byte, scheme uint8) AccountAddress {
	h := sha3.New256()
	h.Write(publicKey)
	h.Write([]byte{scheme})

	var addr AccountAddress
	copy(addr[:], h.Sum(nil))
	return addr
}

func (a AccountAddress) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsSpecial reports whether the address is one of 0x0..0xf.
func (a AccountAddress) IsSpecial() bool {
	for _, b := range a[:AddressLength-1] {
		if b != 0 {
			return false
		}
	}
	return a[AddressLength-1] < 0x10
}

// ShortString renders special addresses in their short form (0x1), the way
// module identifiers are usually written.
func (a AccountAddress) ShortString() string {
	if a.IsSpecial() {
		return fmt.Sprintf("0x%x", a[AddressLength-1])
	}
	return a.String()
}

func (a AccountAddress) MarshalBCS(s *bcs.Serializer) {
	s.FixedBytes(a[:])
}

func (a AccountAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountAddress) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
