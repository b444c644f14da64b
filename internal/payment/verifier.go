package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// ErrMissingSecret means the service is misconfigured and must not start.
var ErrMissingSecret = errors.New("payment key secret is not configured")

// SignatureVerifier checks that a client-reported payment was signed by the
// processor. The secret is injected once at construction and never appears in
// logs or responses.
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(secret string) (*SignatureVerifier, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &SignatureVerifier{secret: []byte(secret)}, nil
}

// Verify recomputes HMAC-SHA256 over "orderID|paymentID" and compares it to
// the hex signature supplied by the client. The comparison is constant time
// and byte-exact over the hex strings, so a case variant of a valid signature
// is rejected like any other mutation. A mismatch is a normal outcome, not an
// error.
//
// The message construction must match the processor's documented format
// exactly: order id, a single '|', payment id.
func (v *SignatureVerifier) Verify(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
