package capability

import (
	"errors"
	"fmt"

	"github.com/vultisig/aptos-capability/internal/aptos"
)

var (
	ErrUnknownKind      = errors.New("unknown proof challenge kind")
	ErrMissingField     = errors.New("field not set")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Stage names the step of an offer that failed.
type Stage string

const (
	StageLookup Stage = "lookup"
	StageEncode Stage = "encode"
	StageSign   Stage = "sign"
	StageSubmit Stage = "submit"
)

// AccountLookupError means the sequence number or chain id could not be read.
type AccountLookupError struct {
	Address aptos.AccountAddress
	Lookup  string
	Err     error
}

func (e *AccountLookupError) Error() string {
	return fmt.Sprintf("failed to look up %s for %s: %v", e.Lookup, e.Address, e.Err)
}

func (e *AccountLookupError) Unwrap() error {
	return e.Err
}

// EncodingError means a challenge field was absent or malformed.
type EncodingError struct {
	Field string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to encode field %s: %v", e.Field, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// SigningError wraps a failure of the signing primitive.
type SigningError struct {
	Address aptos.AccountAddress
	Err     error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign proof challenge as %s: %v", e.Address, e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// SubmissionError carries an on-chain rejection or a broadcast failure.
// ChainError holds the raw VM status or node message when there is one.
type SubmissionError struct {
	Function   string
	Hash       string
	ChainError string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.ChainError != "" {
		return fmt.Sprintf("failed to submit %s: %s", e.Function, e.ChainError)
	}
	return fmt.Sprintf("failed to submit %s: %v", e.Function, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func newSubmissionError(function aptos.FunctionID, err error) *SubmissionError {
	subErr := &SubmissionError{
		Function: function.String(),
		Err:      err,
	}

	var vmErr *aptos.VMError
	var apiErr *aptos.APIError
	switch {
	case errors.As(err, &vmErr):
		subErr.Hash = vmErr.Hash
		subErr.ChainError = vmErr.VMStatus
	case errors.As(err, &apiErr):
		subErr.ChainError = apiErr.Message
	}
	return subErr
}

// StageOf reports which offer step produced err, or "" for foreign errors.
func StageOf(err error) Stage {
	var (
		lookupErr *AccountLookupError
		encErr    *EncodingError
		signErr   *SigningError
		subErr    *SubmissionError
	)
	switch {
	case errors.As(err, &lookupErr):
		return StageLookup
	case errors.As(err, &encErr):
		return StageEncode
	case errors.As(err, &signErr):
		return StageSign
	case errors.As(err, &subErr):
		return StageSubmit
	default:
		return ""
	}
}
