package capability

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/vultisig/aptos-capability/internal/aptos"
)

// Signature is a detached ed25519 signature over canonical challenge bytes.
type Signature []byte

func (s Signature) Hex() string {
	return "0x" + hex.EncodeToString(s)
}

// Sign signs the raw canonical bytes. The message is passed through untouched,
// never hex-encoded first.
func Sign(signer aptos.Signer, canonical []byte) (Signature, error) {
	sig, err := signer.Sign(canonical)
	if err != nil {
		return nil, &SigningError{Address: signer.Address(), Err: err}
	}
	if len(sig) != ed25519.SignatureSize {
		return nil, &SigningError{
			Address: signer.Address(),
			Err:     fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig)),
		}
	}
	return Signature(sig), nil
}

// Verify checks an ed25519 signature over message.
func Verify(publicKey, message []byte, sig Signature) bool {
	if len(publicKey) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(publicKey, message, sig)
}

// SignedOffer is everything the dispatcher needs to submit one offer.
type SignedOffer struct {
	Challenge ProofChallenge
	Bytes     []byte
	Signature Signature
	PublicKey []byte
	Recipient aptos.AccountAddress
	SchemeTag uint8
}

// SignChallenge encodes c and signs the result with signer.
func SignChallenge(signer aptos.Signer, c ProofChallenge, schemeTag uint8) (SignedOffer, error) {
	canonical, err := c.Encode()
	if err != nil {
		return SignedOffer{}, err
	}

	sig, err := Sign(signer, canonical)
	if err != nil {
		return SignedOffer{}, err
	}

	return SignedOffer{
		Challenge: c,
		Bytes:     canonical,
		Signature: sig,
		PublicKey: signer.PublicKey(),
		Recipient: c.RecipientAddress(),
		SchemeTag: schemeTag,
	}, nil
}
