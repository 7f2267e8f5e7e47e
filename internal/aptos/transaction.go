package aptos

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/vultisig/aptos-capability/internal/bcs"
)

const (
	payloadVariantEntryFunction       = 2
	authenticatorVariantEd25519       = 0
	transactionVariantUserTransaction = 0
)

var (
	rawTransactionSalt = hashPrefix("APTOS::RawTransaction")
	transactionSalt    = hashPrefix("APTOS::Transaction")
)

var ErrInvalidFunctionID = errors.New("aptos: invalid function id")

func hashPrefix(domain string) []byte {
	h := sha3.Sum256([]byte(domain))
	return h[:]
}

// ModuleID names an on-chain module.
type ModuleID struct {
	Address AccountAddress
	Name    string
}

func (m ModuleID) MarshalBCS(s *bcs.Serializer) {
	m.Address.MarshalBCS(s)
	s.Str(m.Name)
}

func (m ModuleID) String() string {
	return m.Address.ShortString() + "::" + m.Name
}

// FunctionID is a fully qualified entry function, address::module::function.
type FunctionID struct {
	Module ModuleID
	Name   string
}

func (f FunctionID) String() string {
	return f.Module.String() + "::" + f.Name
}

func (f FunctionID) IsZero() bool {
	return f.Name == "" && f.Module.Name == ""
}

// ParseFunctionID parses "0x1::account::offer_signer_capability". Short
// special addresses (0x1) are expanded.
func ParseFunctionID(s string) (FunctionID, error) {
	parts := strings.Split(strings.TrimSpace(s), "::")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return FunctionID{}, fmt.Errorf("%w: %q", ErrInvalidFunctionID, s)
	}

	addr, err := parseModuleAddress(parts[0])
	if err != nil {
		return FunctionID{}, fmt.Errorf("%w: %q: %v", ErrInvalidFunctionID, s, err)
	}

	return FunctionID{
		Module: ModuleID{Address: addr, Name: parts[1]},
		Name:   parts[2],
	}, nil
}

func parseModuleAddress(s string) (AccountAddress, error) {
	raw := strings.TrimPrefix(s, "0x")
	if len(raw) == 0 || len(raw) > AddressLength*2 {
		return AccountAddress{}, ErrInvalidAddress
	}
	return ParseAddress(strings.Repeat("0", AddressLength*2-len(raw)) + raw)
}

// EntryFunction is the payload of an entry function call. Args hold already
// BCS-encoded arguments in positional order.
type EntryFunction struct {
	Function FunctionID
	Args     [][]byte
}

func (e EntryFunction) MarshalBCS(s *bcs.Serializer) {
	e.Function.Module.MarshalBCS(s)
	s.Str(e.Function.Name)
	// no type arguments
	s.Uleb128(0)
	s.Uleb128(uint32(len(e.Args)))
	for _, arg := range e.Args {
		s.WriteBytes(arg)
	}
}

// RawTransaction is the outer envelope signed by the sending account.
type RawTransaction struct {
	Sender                  AccountAddress
	SequenceNumber          uint64
	Payload                 EntryFunction
	MaxGasAmount            uint64
	GasUnitPrice            uint64
	ExpirationTimestampSecs uint64
	ChainID                 uint8
}

func (t RawTransaction) MarshalBCS(s *bcs.Serializer) {
	t.Sender.MarshalBCS(s)
	s.U64(t.SequenceNumber)
	s.Uleb128(payloadVariantEntryFunction)
	t.Payload.MarshalBCS(s)
	s.U64(t.MaxGasAmount)
	s.U64(t.GasUnitPrice)
	s.U64(t.ExpirationTimestampSecs)
	s.U8(t.ChainID)
}

// SigningMessage is the prefixed byte string the sender signs.
func (t RawTransaction) SigningMessage() ([]byte, error) {
	s := bcs.NewSerializer()
	t.MarshalBCS(s)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to encode raw transaction: %w", err)
	}
	msg := make([]byte, 0, len(rawTransactionSalt)+len(s.Bytes()))
	msg = append(msg, rawTransactionSalt...)
	return append(msg, s.Bytes()...), nil
}

// SignedTransaction pairs a raw transaction with an ed25519 authenticator.
type SignedTransaction struct {
	Raw       RawTransaction
	PublicKey []byte
	Signature []byte
}

// SignTransaction signs raw with signer and validates the key material.
func SignTransaction(signer Signer, raw RawTransaction) (SignedTransaction, error) {
	msg, err := raw.SigningMessage()
	if err != nil {
		return SignedTransaction{}, err
	}

	sig, err := signer.Sign(msg)
	if err != nil {
		return SignedTransaction{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	pub := signer.PublicKey()
	if len(pub) != ed25519.PublicKeySize {
		return SignedTransaction{}, fmt.Errorf("invalid public key length: %d", len(pub))
	}
	if len(sig) != ed25519.SignatureSize {
		return SignedTransaction{}, fmt.Errorf("invalid signature length: %d", len(sig))
	}

	return SignedTransaction{
		Raw:       raw,
		PublicKey: pub,
		Signature: sig,
	}, nil
}

func (t SignedTransaction) MarshalBCS(s *bcs.Serializer) {
	t.Raw.MarshalBCS(s)
	s.Uleb128(authenticatorVariantEd25519)
	s.WriteBytes(t.PublicKey)
	s.WriteBytes(t.Signature)
}

func (t SignedTransaction) Bytes() ([]byte, error) {
	s := bcs.NewSerializer()
	t.MarshalBCS(s)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to encode signed transaction: %w", err)
	}
	return s.Bytes(), nil
}

// Hash computes the transaction hash the node reports for this transaction.
func (t SignedTransaction) Hash() (string, error) {
	b, err := t.Bytes()
	if err != nil {
		return "", err
	}
	return transactionHash(b), nil
}

func transactionHash(signed []byte) string {
	h := sha3.New256()
	h.Write(transactionSalt)
	h.Write([]byte{transactionVariantUserTransaction})
	h.Write(signed)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
