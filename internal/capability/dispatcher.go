package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vultisig/aptos-capability/internal/aptos"
	"github.com/vultisig/aptos-capability/internal/bcs"
)

var (
	ErrUnknownLayout  = errors.New("unknown argument layout")
	ErrLayoutMismatch = errors.New("argument layout does not match function")
)

// ArgLayout fixes the positional order of offer arguments. Arguments are
// untyped at the call boundary, so the layout must match the target function.
type ArgLayout uint8

const (
	// LayoutBytes: recipient, signature, scheme tag, public key.
	LayoutBytes ArgLayout = iota + 1
	// LayoutSimplified: recipient, signature, public key.
	LayoutSimplified
	// LayoutFramework: signature, scheme tag, public key, recipient. This is
	// the parameter order of the 0x1::account offer functions.
	LayoutFramework
)

var layoutNames = map[ArgLayout]string{
	LayoutBytes:      "bytes",
	LayoutSimplified: "simplified",
	LayoutFramework:  "framework",
}

func (l ArgLayout) String() string {
	if name, ok := layoutNames[l]; ok {
		return name
	}
	return fmt.Sprintf("ArgLayout(%d)", uint8(l))
}

func ParseArgLayout(s string) (ArgLayout, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for l, n := range layoutNames {
		if n == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayout, s)
}

// Submitter sends an entry function call in a signed envelope and waits for
// it to commit.
type Submitter interface {
	SubmitAndConfirm(ctx context.Context, signer aptos.Signer, payload aptos.EntryFunction) (aptos.TransactionResult, error)
}

// Offer is one capability offer call.
type Offer struct {
	Function  aptos.FunctionID
	Layout    ArgLayout
	Recipient aptos.AccountAddress
	Signature Signature
	PublicKey []byte
	SchemeTag uint8
}

// BuildArguments BCS-encodes the offer arguments in layout order.
func BuildArguments(o Offer) ([][]byte, error) {
	sig, err := bcs.SerializeBytes(o.Signature)
	if err != nil {
		return nil, &EncodingError{Field: "signature", Err: err}
	}
	pub, err := bcs.SerializeBytes(o.PublicKey)
	if err != nil {
		return nil, &EncodingError{Field: "publicKey", Err: err}
	}
	recipient := append([]byte{}, o.Recipient[:]...)
	scheme := bcs.SerializeU8(o.SchemeTag)

	switch o.Layout {
	case LayoutBytes:
		return [][]byte{recipient, sig, scheme, pub}, nil
	case LayoutSimplified:
		return [][]byte{recipient, sig, pub}, nil
	case LayoutFramework:
		return [][]byte{sig, scheme, pub, recipient}, nil
	default:
		return nil, &EncodingError{Field: "layout", Err: fmt.Errorf("%w: %d", ErrUnknownLayout, o.Layout)}
	}
}

// Dispatcher turns offers into entry function calls. It reports chain
// outcomes as they are and never resubmits.
type Dispatcher struct {
	logger    *logrus.Entry
	submitter Submitter
}

func NewDispatcher(logger *logrus.Logger, submitter Submitter) *Dispatcher {
	return &Dispatcher{
		logger:    logger.WithField("pkg", "capability.Dispatcher"),
		submitter: submitter,
	}
}

func (d *Dispatcher) SubmitOffer(ctx context.Context, signer aptos.Signer, offer Offer) (aptos.TransactionResult, error) {
	args, err := BuildArguments(offer)
	if err != nil {
		return aptos.TransactionResult{}, err
	}
	return d.Submit(ctx, signer, offer.Function, args)
}

// Submit sends function with pre-encoded args. Any failure becomes a
// *SubmissionError.
func (d *Dispatcher) Submit(ctx context.Context, signer aptos.Signer, function aptos.FunctionID, args [][]byte) (aptos.TransactionResult, error) {
	res, err := d.submitter.SubmitAndConfirm(ctx, signer, aptos.EntryFunction{
		Function: function,
		Args:     args,
	})
	if err != nil {
		return res, newSubmissionError(function, err)
	}

	d.logger.WithFields(logrus.Fields{
		"function": function.String(),
		"sender":   signer.Address().String(),
		"hash":     res.Hash,
		"version":  res.Version,
	}).Info("transaction committed")
	return res, nil
}

// SubmitBestEffort is Submit for fire-and-forget follow-ups: a failure is
// logged and reported only through ok.
func (d *Dispatcher) SubmitBestEffort(ctx context.Context, signer aptos.Signer, function aptos.FunctionID, args [][]byte) (res aptos.TransactionResult, ok bool) {
	res, err := d.Submit(ctx, signer, function, args)
	if err != nil {
		d.logger.WithError(err).WithField("function", function.String()).Warn("best-effort submission failed")
		return res, false
	}
	return res, true
}

// RetrieveCapability calls a zero-argument retrieve function as signer.
func (d *Dispatcher) RetrieveCapability(ctx context.Context, signer aptos.Signer, function aptos.FunctionID) (aptos.TransactionResult, error) {
	return d.Submit(ctx, signer, function, nil)
}

// TryRetrieveCapability is RetrieveCapability with best-effort semantics.
func (d *Dispatcher) TryRetrieveCapability(ctx context.Context, signer aptos.Signer, function aptos.FunctionID) bool {
	_, ok := d.SubmitBestEffort(ctx, signer, function, nil)
	return ok
}
