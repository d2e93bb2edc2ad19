package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Signer computes and verifies gateway callback signatures: the hex-encoded
// HMAC-SHA256 of "<gatewayOrderID>|<gatewayPaymentID>" under the server-held
// gateway secret.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer for the given gateway secret.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the expected signature for the given gateway identifiers.
func (s *Signer) Sign(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(gatewayOrderID))
	mac.Write([]byte{'|'})
	mac.Write([]byte(gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the supplied signature matches the expected one.
// The comparison is constant-time; string equality would leak a timing
// side-channel on the matching prefix length.
func (s *Signer) Verify(gatewayOrderID, gatewayPaymentID, signature string) bool {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(gatewayOrderID))
	mac.Write([]byte{'|'})
	mac.Write([]byte(gatewayPaymentID))
	expected := mac.Sum(nil)

	supplied, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(expected, supplied) == 1
}
