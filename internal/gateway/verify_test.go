package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jinsharnammedia/commerce/pkg/errors"
)

const testSecret = "test_gateway_secret"

func sign(t *testing.T, secret, intentID, paymentID string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(intentID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerify_ValidSignature(t *testing.T) {
	v := NewSignatureVerifier(testSecret)
	sig := sign(t, testSecret, "intent_123", "pay_456")

	assert.NoError(t, v.Verify("intent_123", "pay_456", sig))
}

func TestVerify_WrongSecret(t *testing.T) {
	v := NewSignatureVerifier(testSecret)
	sig := sign(t, "other_secret", "intent_123", "pay_456")

	err := v.Verify("intent_123", "pay_456", sig)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentNotValid)
}

func TestVerify_SingleCharacterMutation(t *testing.T) {
	v := NewSignatureVerifier(testSecret)
	valid := sign(t, testSecret, "intent_123", "pay_456")

	// Flipping any single hex character must invalidate the signature.
	for i := 0; i < len(valid); i++ {
		mutated := []byte(valid)
		if mutated[i] == 'a' {
			mutated[i] = 'b'
		} else {
			mutated[i] = 'a'
		}
		err := v.Verify("intent_123", "pay_456", string(mutated))
		assert.Error(t, err, "mutation at position %d must fail", i)
	}
}

func TestVerify_SwappedIDs(t *testing.T) {
	v := NewSignatureVerifier(testSecret)
	sig := sign(t, testSecret, "intent_123", "pay_456")

	assert.Error(t, v.Verify("pay_456", "intent_123", sig))
}

func TestVerify_DifferentPaymentID(t *testing.T) {
	v := NewSignatureVerifier(testSecret)
	sig := sign(t, testSecret, "intent_123", "pay_456")

	assert.Error(t, v.Verify("intent_123", "pay_457", sig))
}

func TestVerify_MissingFields(t *testing.T) {
	v := NewSignatureVerifier(testSecret)
	sig := sign(t, testSecret, "intent_123", "pay_456")

	tests := []struct {
		name                          string
		intentID, paymentID, signature string
	}{
		{"empty intent id", "", "pay_456", sig},
		{"empty payment id", "intent_123", "", sig},
		{"empty signature", "intent_123", "pay_456", ""},
		{"all empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.intentID, tt.paymentID, tt.signature)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrPaymentNotValid)
		})
	}
}
