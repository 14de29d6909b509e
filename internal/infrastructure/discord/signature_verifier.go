package discord

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// SignatureHeader carries the hex encoded ed25519 signature.
	SignatureHeader = "X-Signature-Ed25519"

	// TimestampHeader carries the timestamp that was signed along with the body.
	TimestampHeader = "X-Signature-Timestamp"
)

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrMissingTimestamp = errors.New("missing timestamp header")
	ErrInvalidSignature = errors.New("invalid signature")
)

// SignatureVerifier checks that interaction webhooks were signed by Discord.
type SignatureVerifier struct {
	publicKey ed25519.PublicKey
}

// NewSignatureVerifier creates a verifier from the application's hex encoded public key.
func NewSignatureVerifier(publicKeyHex string) (*SignatureVerifier, error) {
	key, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}

	return &SignatureVerifier{publicKey: ed25519.PublicKey(key)}, nil
}

// VerifySignature checks signature over timestamp||body.
//
// Parameters:
//   - timestamp: X-Signature-Timestamp header value
//   - body: raw request body, before any parsing
//   - signature: X-Signature-Ed25519 header value (hex)
func (v *SignatureVerifier) VerifySignature(timestamp string, body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if timestamp == "" {
		return ErrMissingTimestamp
	}

	sig, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: not hex", ErrInvalidSignature)
	}

	// Reject non-canonical S values up front.
	if len(sig) != ed25519.SignatureSize || sig[63]&224 != 0 {
		return fmt.Errorf("%w: malformed", ErrInvalidSignature)
	}

	message := make([]byte, 0, len(timestamp)+len(body))
	message = append(message, timestamp...)
	message = append(message, body...)

	if !ed25519.Verify(v.publicKey, message, sig) {
		return ErrInvalidSignature
	}

	return nil
}
