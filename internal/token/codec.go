// Package token implements the compact signed tokens carried by the auth
// cookies: base64url(JSON(claims)) + "." + base64url(HMAC(secret, payload)).
// The signature covers the base64url-encoded payload bytes, never the raw
// JSON, so encoding ambiguity cannot be exploited.
package token

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/thiagohmg/capitaoanimais/internal/domain"
)

// Claims is the payload carried inside a signed token. All fields are
// server-minted; the client is a blind carrier of the opaque string.
// CodeHash appears only on verification tokens, never on session tokens.
type Claims struct {
	Email    string `json:"email"`
	CodeHash string `json:"codeHash,omitempty"`
	Name     string `json:"name,omitempty"`
	Iat      int64  `json:"iat"`
	Exp      int64  `json:"exp"`
}

// Codec mints and verifies tokens. Mint and ParseAndVerify are pure
// functions of (claims, secret, clock); the codec holds no request state.
type Codec struct {
	signer *Signer
	now    func() time.Time
}

func NewCodec(signer *Signer) *Codec {
	return &Codec{signer: signer, now: time.Now}
}

// Mint stamps iat=now and exp=iat+ttl, then serializes and signs the claims.
func (c *Codec) Mint(claims Claims, ttl time.Duration) (string, error) {
	now := c.now().Unix()
	claims.Iat = now
	claims.Exp = now + int64(ttl/time.Second)

	raw, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	sig := base64.RawURLEncoding.EncodeToString(c.signer.Sign([]byte(payload)))
	return payload + "." + sig, nil
}

// ParseAndVerify returns the claims of a valid token. The signature is
// checked in constant time before the payload is decoded, so a tampered
// token reveals nothing beyond the fact verification failed. Expiry is
// enforced after the signature: a token is valid at exactly exp and
// ErrTokenExpired one second later. Malformed input of any kind yields
// ErrTokenInvalid, never a panic.
func (c *Codec) ParseAndVerify(tok string) (Claims, error) {
	payload, sigB64, ok := strings.Cut(tok, ".")
	if !ok || strings.Contains(sigB64, ".") {
		return Claims{}, domain.ErrTokenInvalid
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return Claims{}, domain.ErrTokenInvalid
	}
	if !c.signer.Verify([]byte(payload), sig) {
		return Claims{}, domain.ErrTokenInvalid
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Claims{}, domain.ErrTokenInvalid
	}
	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return Claims{}, domain.ErrTokenInvalid
	}
	if claims.Exp != 0 && c.now().Unix() > claims.Exp {
		return Claims{}, domain.ErrTokenExpired
	}
	return claims, nil
}
