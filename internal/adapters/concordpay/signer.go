// Package concordpay implements ConcordPay message signing and the hosted
// payment page form.
package concordpay

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/fitstack/concordpay-gateway/internal/core/domain"
)

// SignatureSeparator joins field values into the signed message.
const SignatureSeparator = ";"

// KeySet is an ordered list of payload field names covered by a signature.
type KeySet []string

var (
	requestKeys  = KeySet{"merchant_id", "order_id", "amount", "currency_iso", "description"}
	responseKeys = KeySet{"merchantAccount", "orderReference", "amount", "currency"}
)

// RequestKeys returns the fields signed on outbound payment requests.
func RequestKeys() KeySet {
	return append(KeySet(nil), requestKeys...)
}

// ResponseKeys returns the fields signed on inbound callbacks.
func ResponseKeys() KeySet {
	return append(KeySet(nil), responseKeys...)
}

// Payload is anything whose fields can be looked up by wire name.
// A false second result means the field is absent and contributes nothing.
type Payload interface {
	Lookup(key string) ([]string, bool)
}

// Values is a loosely-typed payload, mostly useful for tests and ad-hoc messages.
type Values map[string][]string

// Lookup implements Payload.
func (v Values) Lookup(key string) ([]string, bool) {
	vals, ok := v[key]
	return vals, ok
}

// Signer signs ConcordPay messages with the merchant secret key.
//
// The processor mandates HMAC-MD5. It is kept for wire compatibility only and
// must not be swapped for another hash without the processor changing first.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer for the given secret key.
func NewSigner(secretKey string) *Signer {
	return &Signer{secret: []byte(secretKey)}
}

// Sign computes the lowercase hex HMAC-MD5 over the payload fields named in keys.
func (s *Signer) Sign(payload Payload, keys KeySet) string {
	mac := hmac.New(md5.New, s.secret)
	mac.Write([]byte(buildMessage(payload, keys)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the payload, in constant time.
func (s *Signer) Verify(payload Payload, keys KeySet, signature string) bool {
	if signature == "" {
		return false
	}
	expected := s.Sign(payload, keys)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// RequestSignature signs an outbound payment request.
func (s *Signer) RequestSignature(req domain.PaymentRequest) string {
	return s.Sign(req, requestKeys)
}

// ResponseSignature signs an inbound callback the way the processor does.
func (s *Signer) ResponseSignature(n domain.CallbackNotification) string {
	return s.Sign(n, responseKeys)
}

// VerifyResponse checks the merchantSignature of a callback.
func (s *Signer) VerifyResponse(n domain.CallbackNotification) bool {
	return s.Verify(n, responseKeys, n.MerchantSignature)
}

// buildMessage constructs the string to be signed: every present value of
// every key, in key order, joined by the separator. List values contribute
// one segment per element.
func buildMessage(payload Payload, keys KeySet) string {
	var parts []string
	for _, key := range keys {
		values, ok := payload.Lookup(key)
		if !ok {
			continue
		}
		parts = append(parts, values...)
	}
	return strings.Join(parts, SignatureSeparator)
}
