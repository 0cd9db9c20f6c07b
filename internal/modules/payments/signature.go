package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Verifier authenticates a callback before its status is trusted.
type Verifier interface {
	Verify(in CallbackInput) error
}

// HMACVerifier expects signature = hex(HMAC-SHA256(secret,
// payment_id|reference|amount|status)).
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(in CallbackInput) error {
	got, err := hex.DecodeString(strings.TrimSpace(in.Signature))
	if err != nil || len(got) == 0 {
		return ErrInvalidSignature
	}
	want := signatureMAC(v.secret, in)
	if !hmac.Equal(got, want) {
		return ErrInvalidSignature
	}
	return nil
}

// NoopVerifier accepts every callback. Used when no signing secret is
// configured.
type NoopVerifier struct{}

func (NoopVerifier) Verify(CallbackInput) error { return nil }

// Sign returns the hex signature a sender must attach to in.
func Sign(secret string, in CallbackInput) string {
	return hex.EncodeToString(signatureMAC([]byte(secret), in))
}

func signatureMAC(secret []byte, in CallbackInput) []byte {
	in.normalize()
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(in.PaymentID))
	m.Write([]byte("|"))
	m.Write([]byte(in.Reference))
	m.Write([]byte("|"))
	m.Write([]byte(in.Amount))
	m.Write([]byte("|"))
	m.Write([]byte(in.Status))
	return m.Sum(nil)
}
