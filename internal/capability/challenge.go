package capability

import (
	"fmt"
	"strings"

	"github.com/vultisig/aptos-capability/internal/aptos"
	"github.com/vultisig/aptos-capability/internal/bcs"
)

// Kind selects a proof challenge variant.
type Kind uint8

const (
	KindSignerCapabilityOffer Kind = iota + 1
	KindRotationCapabilityOffer
)

type field uint8

const (
	fieldModuleAddress field = iota
	fieldModuleName
	fieldStructName
	fieldChainID
	fieldSequenceNumber
	fieldSourceAddress
	fieldRecipientAddress
)

var fieldNames = map[field]string{
	fieldModuleAddress:    "moduleAddress",
	fieldModuleName:       "moduleName",
	fieldStructName:       "structName",
	fieldChainID:          "chainId",
	fieldSequenceNumber:   "sequenceNumber",
	fieldSourceAddress:    "sourceAddress",
	fieldRecipientAddress: "recipientAddress",
}

func (f field) String() string {
	return fieldNames[f]
}

// variant is the static, per-kind part of a proof challenge. The field list
// is the wire order the framework verifier deserializes.
type variant struct {
	name         string
	module       aptos.ModuleID
	structName   string
	functionName string
	fields       []field
	layout       ArgLayout
}

var variants = map[Kind]variant{
	KindSignerCapabilityOffer: {
		name:         "signer",
		module:       aptos.ModuleID{Address: aptos.CoreCodeAddress, Name: "account"},
		structName:   "SignerCapabilityOfferProofChallengeV2",
		functionName: "offer_signer_capability",
		fields: []field{
			fieldModuleAddress,
			fieldModuleName,
			fieldStructName,
			fieldSequenceNumber,
			fieldSourceAddress,
			fieldRecipientAddress,
		},
		layout: LayoutBytes,
	},
	KindRotationCapabilityOffer: {
		name:         "rotation",
		module:       aptos.ModuleID{Address: aptos.CoreCodeAddress, Name: "account"},
		structName:   "RotationCapabilityOfferProofChallengeV2",
		functionName: "offer_rotation_capability",
		fields: []field{
			fieldModuleAddress,
			fieldModuleName,
			fieldStructName,
			fieldChainID,
			fieldSequenceNumber,
			fieldSourceAddress,
			fieldRecipientAddress,
		},
		layout: LayoutSimplified,
	},
}

// Kinds lists every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindSignerCapabilityOffer, KindRotationCapabilityOffer}
}

func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		v := variants[k]
		if name == v.name || name == strings.ToLower(v.structName) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string {
	if v, ok := variants[k]; ok {
		return v.name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) StructName() string {
	return variants[k].structName
}

// Function is the framework entry function that accepts this kind of offer.
func (k Kind) Function() aptos.FunctionID {
	v := variants[k]
	return aptos.FunctionID{Module: v.module, Name: v.functionName}
}

// DefaultLayout is the argument layout for a custom offer function when the
// caller does not pick one. The 0x1::account functions take LayoutFramework.
func (k Kind) DefaultLayout() ArgLayout {
	return variants[k].layout
}

// ProofChallenge is an immutable proof challenge. The zero value is not
// encodable; build one with NewSignerChallenge or NewRotationChallenge.
type ProofChallenge struct {
	kind           Kind
	sequenceNumber uint64
	chainID        uint8
	source         aptos.AccountAddress
	recipient      aptos.AccountAddress
	set            map[field]bool
}

func NewSignerChallenge(sequenceNumber uint64, source, recipient aptos.AccountAddress) ProofChallenge {
	return ProofChallenge{
		kind:           KindSignerCapabilityOffer,
		sequenceNumber: sequenceNumber,
		source:         source,
		recipient:      recipient,
		set: map[field]bool{
			fieldSequenceNumber:   true,
			fieldSourceAddress:    true,
			fieldRecipientAddress: true,
		},
	}
}

func NewRotationChallenge(chainID uint8, sequenceNumber uint64, source, recipient aptos.AccountAddress) ProofChallenge {
	return ProofChallenge{
		kind:           KindRotationCapabilityOffer,
		sequenceNumber: sequenceNumber,
		chainID:        chainID,
		source:         source,
		recipient:      recipient,
		set: map[field]bool{
			fieldChainID:          true,
			fieldSequenceNumber:   true,
			fieldSourceAddress:    true,
			fieldRecipientAddress: true,
		},
	}
}

func (c ProofChallenge) Kind() Kind {
	return c.kind
}

func (c ProofChallenge) SequenceNumber() uint64 {
	return c.sequenceNumber
}

func (c ProofChallenge) ChainID() uint8 {
	return c.chainID
}

func (c ProofChallenge) SourceAddress() aptos.AccountAddress {
	return c.source
}

func (c ProofChallenge) RecipientAddress() aptos.AccountAddress {
	return c.recipient
}

func (c ProofChallenge) ModuleAddress() aptos.AccountAddress {
	return variants[c.kind].module.Address
}

func (c ProofChallenge) ModuleName() string {
	return variants[c.kind].module.Name
}

func (c ProofChallenge) StructName() string {
	return variants[c.kind].structName
}

func (c ProofChallenge) FunctionName() string {
	return variants[c.kind].functionName
}

// Encode produces the canonical BCS bytes of the challenge by walking the
// variant's field list.
func (c ProofChallenge) Encode() ([]byte, error) {
	v, ok := variants[c.kind]
	if !ok {
		return nil, &EncodingError{Field: "kind", Err: fmt.Errorf("%w: %d", ErrUnknownKind, c.kind)}
	}

	s := bcs.NewSerializer()
	for _, f := range v.fields {
		if err := c.encodeField(s, v, f); err != nil {
			return nil, err
		}
	}
	return s.Bytes(), nil
}

func (c ProofChallenge) encodeField(s *bcs.Serializer, v variant, f field) error {
	switch f {
	case fieldModuleAddress:
		v.module.Address.MarshalBCS(s)
	case fieldModuleName:
		s.Str(v.module.Name)
	case fieldStructName:
		s.Str(v.structName)
	default:
		if !c.set[f] {
			return &EncodingError{Field: f.String(), Err: ErrMissingField}
		}
		switch f {
		case fieldChainID:
			s.U8(c.chainID)
		case fieldSequenceNumber:
			s.U64(c.sequenceNumber)
		case fieldSourceAddress:
			c.source.MarshalBCS(s)
		case fieldRecipientAddress:
			c.recipient.MarshalBCS(s)
		}
	}

	if err := s.Err(); err != nil {
		return &EncodingError{Field: f.String(), Err: err}
	}
	return nil
}

// DecodeProofChallenge parses canonical challenge bytes. The variant is chosen
// by the struct name, and the framework constants must match it exactly.
func DecodeProofChallenge(data []byte) (ProofChallenge, error) {
	d := bcs.NewDeserializer(data)

	moduleAddr, err := aptos.AddressFromBytes(d.FixedBytes(aptos.AddressLength))
	if err != nil {
		return ProofChallenge{}, &EncodingError{Field: fieldModuleAddress.String(), Err: decodeErr(d, err)}
	}
	moduleName := d.Str()
	structName := d.Str()
	if err := d.Err(); err != nil {
		return ProofChallenge{}, &EncodingError{Field: fieldStructName.String(), Err: err}
	}

	var kind Kind
	for _, k := range Kinds() {
		if variants[k].structName == structName {
			kind = k
		}
	}
	v, ok := variants[kind]
	if !ok {
		return ProofChallenge{}, &EncodingError{Field: fieldStructName.String(), Err: fmt.Errorf("%w: %q", ErrUnknownKind, structName)}
	}
	if moduleAddr != v.module.Address || moduleName != v.module.Name {
		return ProofChallenge{}, &EncodingError{
			Field: fieldModuleName.String(),
			Err:   fmt.Errorf("unexpected module %s::%s", moduleAddr.ShortString(), moduleName),
		}
	}

	c := ProofChallenge{kind: kind, set: map[field]bool{}}
	for _, f := range v.fields[3:] {
		switch f {
		case fieldChainID:
			c.chainID = d.U8()
		case fieldSequenceNumber:
			c.sequenceNumber = d.U64()
		case fieldSourceAddress:
			copy(c.source[:], d.FixedBytes(aptos.AddressLength))
		case fieldRecipientAddress:
			copy(c.recipient[:], d.FixedBytes(aptos.AddressLength))
		}
		if err := d.Err(); err != nil {
			return ProofChallenge{}, &EncodingError{Field: f.String(), Err: err}
		}
		c.set[f] = true
	}

	if err := d.Finish(); err != nil {
		return ProofChallenge{}, &EncodingError{Field: "trailer", Err: err}
	}
	return c, nil
}

func decodeErr(d *bcs.Deserializer, fallback error) error {
	if err := d.Err(); err != nil {
		return err
	}
	return fallback
}
