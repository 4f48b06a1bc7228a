package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Signer is the HMAC-SHA256 primitive behind token signatures and one-time
// code hashes. The key is injected once at startup and read-only afterwards.
type Signer struct {
	key []byte
}

func NewSigner(key []byte) *Signer {
	return &Signer{key: key}
}

// Sign returns the HMAC-SHA256 digest of payload.
func (s *Signer) Sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return mac.Sum(nil)
}

// Verify reports whether sig is the digest of payload. The comparison runs
// in constant time; a length mismatch is simply "not equal".
func (s *Signer) Verify(payload, sig []byte) bool {
	return hmac.Equal(sig, s.Sign(payload))
}

// CodeHash returns the hex keyed hash of a one-time code. Only this hash
// ever travels inside a token; the plaintext code goes out by email.
func (s *Signer) CodeHash(code string) string {
	return hex.EncodeToString(s.Sign([]byte(code)))
}

// HashEqual compares two hex digests in constant time.
func (s *Signer) HashEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
