package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	apperrors "github.com/jinsharnammedia/commerce/pkg/errors"
)

// SignatureVerifier checks that a payment claim really originated at the
// gateway. The gateway signs intentID|paymentID with the shared secret; a
// claim whose signature does not match is treated as untrusted regardless of
// which field was wrong.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier creates a verifier bound to the gateway key secret.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Verify recomputes hex(HMAC-SHA256(secret, intentID + "|" + paymentID)) and
// compares it in constant time against the supplied signature. Empty inputs
// and mismatches are both rejected as a failed verification; callers get a
// single error and no detail about which part failed.
func (v *SignatureVerifier) Verify(intentID, paymentID, signature string) error {
	if intentID == "" || paymentID == "" || signature == "" {
		return apperrors.PaymentVerificationFailed("payment could not be verified")
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(intentID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperrors.PaymentVerificationFailed("payment could not be verified")
	}

	return nil
}
